package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/firdesk/internal/retry"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	retry  retry.Policy
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiClient(ctx context.Context, cc *genai.ClientConfig, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model, retry: retry.Default}, nil
}

// WithRetry sets the retry policy for transient API errors.
func (g *GeminiClient) WithRetry(p retry.Policy) *GeminiClient {
	g.retry = p
	return g
}

func (g *GeminiClient) Model() string { return g.model }

func (g *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.maxTokens()),
	}

	var text string
	err := g.retry.Do(ctx, "gemini generate", func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
		if err != nil {
			return geminiError(err)
		}
		text = resp.Text()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Response{Model: model, Text: text}, nil
}

func geminiError(err error) error {
	// genai returns APIError by value.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && retry.Transient(apiErr.Code) {
		return &retry.RetryableError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini: %w", err)
}

// Close is a no-op for Gemini.
func (g *GeminiClient) Close() {}
