// Package classify asks the legal-section classifier which sections of the
// criminal code a complaint narrative falls under.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/firdesk/internal/retry"
)

// DefaultAct is assumed when the classifier returns a bare section number.
const DefaultAct = "BNS"

var ErrEmptyText = errors.New("empty complaint text")

// Section is one predicted section, most probable first.
type Section struct {
	Act         string  `json:"act"`
	Code        string  `json:"section"`
	Title       string  `json:"title,omitempty"`
	Probability float64 `json:"probability,omitempty"`
}

// ClassificationError wraps any failure to obtain a prediction.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return "classification failed: " + e.Err.Error()
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Classifier predicts sections for a narrative.
type Classifier interface {
	Predict(ctx context.Context, text string) ([]Section, error)
}

// Client calls the classifier service over HTTP.
type Client struct {
	baseURL    string
	topK       int
	window     int
	httpClient *http.Client
	retry      retry.Policy
}

func NewClient(baseURL string, topK int) *Client {
	if topK <= 0 {
		topK = 3
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		topK:    topK,
		window:  DefaultWindow,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retry: retry.Default,
	}
}

// WithWindow sets the most tokens sent in one request.
func (c *Client) WithWindow(tokens int) *Client {
	if tokens > 0 {
		c.window = tokens
	}
	return c
}

// WithRetry replaces the retry policy.
func (c *Client) WithRetry(p retry.Policy) *Client {
	c.retry = p
	return c
}

type predictRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type predictResponse struct {
	Sections []json.RawMessage `json:"sections"`
	Error    string            `json:"error"`
}

// Predict returns the classifier's sections for text in the order given.
// Narratives longer than the client's window are classified window by
// window and the results merged.
func (c *Client) Predict(ctx context.Context, text string) ([]Section, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ClassificationError{Err: ErrEmptyText}
	}

	parts := Windows(text, c.window, windowOverlap)
	groups := make([][]Section, 0, len(parts))
	for _, part := range parts {
		sections, err := c.predictWindow(ctx, part)
		if err != nil {
			return nil, &ClassificationError{Err: err}
		}
		groups = append(groups, sections)
	}
	if len(groups) == 1 {
		return groups[0], nil
	}
	return merge(groups, c.topK), nil
}

func (c *Client) predictWindow(ctx context.Context, text string) ([]Section, error) {
	body, err := json.Marshal(predictRequest{Text: text, TopK: c.topK})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	var out []Section
	err = c.retry.Do(ctx, "classify", func(ctx context.Context) error {
		var callErr error
		out, callErr = c.predict(ctx, body)
		return callErr
	})
	return out, err
}

func (c *Client) predict(ctx context.Context, body []byte) ([]Section, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if retry.Transient(resp.StatusCode) {
		return nil, &retry.RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier status %d: %s", resp.StatusCode, retry.Truncate(string(respBody), 200))
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if pr.Error != "" {
		return nil, fmt.Errorf("classifier: %s", pr.Error)
	}
	sections := make([]Section, 0, len(pr.Sections))
	for _, raw := range pr.Sections {
		s, err := decodeSection(raw)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// decodeSection accepts either {"section","title","probability"} objects or
// plain labels such as "IPC 302".
func decodeSection(raw json.RawMessage) (Section, error) {
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		return ParseLabel(label), nil
	}
	var obj struct {
		Act         string          `json:"act"`
		Section     json.RawMessage `json:"section"`
		Title       string          `json:"title"`
		Probability float64         `json:"probability"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Section{}, fmt.Errorf("decode section: %w", err)
	}
	code := strings.Trim(strings.TrimSpace(string(obj.Section)), `"`)
	s := ParseLabel(code)
	if obj.Act != "" {
		s.Act = obj.Act
	}
	s.Title = obj.Title
	s.Probability = obj.Probability
	return s, nil
}

// ParseLabel splits "IPC 302" into act and section. A label without an act
// prefix is taken to be a DefaultAct section.
func ParseLabel(label string) Section {
	label = strings.TrimSpace(label)
	if act, code, ok := strings.Cut(label, " "); ok && !startsWithDigit(act) {
		return Section{Act: act, Code: strings.TrimSpace(code)}
	}
	return Section{Act: DefaultAct, Code: label}
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
