// Package gemini provides the Google Gemini backed language model and planner
// for the compliance feature.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"compliance_backend/internal/feature/compliance/usecase"
	"compliance_backend/internal/shared/ratelimiter"
)

const (
	// DefaultModel is the default Gemini model.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single GenerateContent call.
	DefaultTimeout = 120 * time.Second
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Completer sends single prompts to Gemini.
type Completer struct {
	models      contentGenerator
	model       string
	timeout     time.Duration
	temperature float32
	rateLimiter ratelimiter.RateLimiterInterface
}

// Compile-time check that Completer implements usecase.Completer.
var _ usecase.Completer = (*Completer)(nil)

// NewClient creates a genai client. An empty apiKey lets the SDK read
// GOOGLE_API_KEY / GEMINI_API_KEY or the Vertex AI variables
// (GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION).
// httpClient may be nil.
func NewClient(ctx context.Context, apiKey string, httpClient *http.Client) (*genai.Client, error) {
	cfg := &genai.ClientConfig{HTTPClient: httpClient}
	if apiKey != "" {
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewCompleter creates a Completer on client. model and timeout fall back to
// DefaultModel and DefaultTimeout; rl may be nil.
func NewCompleter(client *genai.Client, model string, timeout time.Duration, rl ratelimiter.RateLimiterInterface) *Completer {
	return newCompleter(client.Models, model, timeout, rl)
}

func newCompleter(models contentGenerator, model string, timeout time.Duration, rl ratelimiter.RateLimiterInterface) *Completer {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Completer{models: models, model: model, timeout: timeout, temperature: 0, rateLimiter: rl}
}

// Model returns the model name in use.
func (c *Completer) Model() string {
	return c.model
}

// Complete generates text for prompt.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if c.rateLimiter != nil {
		c.rateLimiter.WaitIfNeeded()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temp := c.temperature
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{Temperature: &temp})
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}
