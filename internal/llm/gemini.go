package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"socialpulse/internal/config"
)

const (
	retryAttempts = 3
	retryInterval = 15 * time.Second
)

// GeminiProvider implements Provider using google.golang.org/genai.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a provider backed by the Gemini API.
func NewGeminiProvider(cfg config.LLMConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{client: client, model: cfg.Model}, nil
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

// GenerateJSON sends one completion request asking for a JSON-only reply.
// Transient failures are retried with a fixed 15s interval, 3 attempts total.
func (p *GeminiProvider) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	var raw json.RawMessage

	operation := func() error {
		start := time.Now()
		result, err := p.client.Models.GenerateContent(
			ctx,
			p.model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			},
		)
		if err != nil {
			slog.Warn("gemini call failed", "model", p.model, "error", err)
			return err
		}

		text := result.Text()
		if text == "" {
			return backoff.Permanent(fmt.Errorf("%w: empty reply", ErrInvalidResponse))
		}

		if result.UsageMetadata != nil {
			slog.Debug("gemini call completed",
				"model", p.model,
				"latency_ms", time.Since(start).Milliseconds(),
				"input_tokens", result.UsageMetadata.PromptTokenCount,
				"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			)
		}

		raw = json.RawMessage(text)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), retryAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return raw, nil
}

var _ Provider = (*GeminiProvider)(nil)
