// Package llm talks to the language models used for advisory answer checks
// and free-form questions from the intake desk.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/firdesk/internal/retry"
)

const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.2
)

// ErrUnavailable means the model server could not be reached at all.
var ErrUnavailable = errors.New("language model unavailable")

// Request is one prompt. Zero MaxTokens means DefaultMaxTokens; an empty
// Model means the client's configured model.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Model       string
}

func (r Request) maxTokens() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}

// Response is the generated text and the model that produced it.
type Response struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Model() string
	Close()
}

// UnavailableError reports a model server that refused the connection or
// does not serve the generate endpoint.
type UnavailableError struct {
	Provider string
	URL      string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s local server not running at %s", e.Provider, e.URL)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

// StatusError is a non-retryable error status from a model server.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, retry.Truncate(e.Body, 200))
}

func statusError(provider string, status int, body []byte) error {
	if retry.Transient(status) {
		return &retry.RetryableError{StatusCode: status, Message: string(body)}
	}
	return &StatusError{Provider: provider, StatusCode: status, Body: string(body)}
}

// ValidationPrompt asks a model whether an answer fits its question.
func ValidationPrompt(label, answer string) string {
	return "validate: " + label + " -> " + answer
}
