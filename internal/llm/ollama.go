package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/firdesk/internal/retry"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2:3b"

	maxRawText = 20000
)

// OllamaClient calls a local Ollama server's generate endpoint.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	retry      retry.Policy
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry: retry.Policy{Attempts: 1},
	}
}

// WithRetry replaces the retry policy. Ollama calls are not retried by default.
func (c *OllamaClient) WithRetry(p retry.Policy) *OllamaClient {
	c.retry = p
	return c
}

func (c *OllamaClient) Model() string { return c.model }

// URL is the server base URL.
func (c *OllamaClient) URL() string { return c.baseURL }

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type ollamaRequest struct {
	Model       string        `json:"model"`
	Prompt      string        `json:"prompt"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Options     ollamaOptions `json:"options"`
}

func (c *OllamaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(ollamaRequest{
		Model:       model,
		Prompt:      req.Prompt,
		MaxTokens:   req.maxTokens(),
		Temperature: req.Temperature,
		Options:     ollamaOptions{NumPredict: req.maxTokens(), Temperature: req.Temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var text string
	err = c.retry.Do(ctx, "ollama generate", func(ctx context.Context) error {
		raw, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		text = NormalizeOutput(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Response{Model: model, Text: text}, nil
}

func (c *OllamaClient) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, &UnavailableError{Provider: "Ollama", URL: c.baseURL, Err: err}
		}
		return nil, fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &UnavailableError{Provider: "Ollama", URL: c.baseURL}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("ollama", resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *OllamaClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// NormalizeOutput extracts the generated text from the response shapes model
// servers produce: newline-delimited stream chunks, a single object carrying
// response, output, generated_text or choices, or an array of such objects.
// Anything else comes back as raw JSON, cut to 20000 bytes.
func NormalizeOutput(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "\n") {
		return joinStream(trimmed)
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return trimmed
	}
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := firstString(item, "generated_text", "text"); s != "" {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, compact(item))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		if s := firstString(t, "response", "output", "generated_text"); s != "" {
			return s
		}
		if choices, ok := t["choices"].([]any); ok && len(choices) > 0 {
			parts := make([]string, 0, len(choices))
			for _, ch := range choices {
				parts = append(parts, choiceText(ch))
			}
			return strings.Join(parts, "\n")
		}
		return cut(compact(t), maxRawText)
	case string:
		return t
	default:
		return trimmed
	}
}

func joinStream(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			b.WriteString(line)
			continue
		}
		b.WriteString(firstString(obj, "response", "generated_text", "text"))
	}
	return b.String()
}

func choiceText(ch any) string {
	if s := firstString(ch, "text"); s != "" {
		return s
	}
	if m, ok := ch.(map[string]any); ok {
		if s := firstString(m["message"], "content"); s != "" {
			return s
		}
	}
	return firstString(ch, "output")
}

func firstString(v any, keys ...string) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func cut(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
