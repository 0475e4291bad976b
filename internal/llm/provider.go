// Package llm abstracts the text-generation service behind a small
// provider interface so analyzers never talk to a specific SDK directly.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialpulse/internal/config"
)

// Provider is the interface all LLM integrations implement.
// GenerateJSON issues one completion request and returns the reply as raw
// JSON. Implementations must request a JSON-formatted response from the
// underlying service; callers still validate the payload.
type Provider interface {
	GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error)
	// Name returns the provider identifier (e.g., "gemini").
	Name() string
	// Model returns the model identifier used for requests.
	Model() string
}

// NewProvider constructs the appropriate provider based on config.
// Called once at orchestrator startup.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	var p Provider
	switch cfg.Provider {
	case "gemini":
		gp, err := NewGeminiProvider(cfg)
		if err != nil {
			return nil, err
		}
		p = gp
	case "mock":
		// Dry-run mode: every call answers an empty JSON object.
		p = &staticProvider{name: "mock", model: cfg.Model}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: must be one of gemini, mock", cfg.Provider)
	}
	if cfg.InferenceTimeout > 0 {
		p = &timeoutProvider{Provider: p, timeout: cfg.InferenceTimeout}
	}
	return p, nil
}

// timeoutProvider bounds each GenerateJSON call by the configured
// per-inference timeout, on top of whatever deadline the caller carries.
type timeoutProvider struct {
	Provider
	timeout time.Duration
}

func (p *timeoutProvider) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.Provider.GenerateJSON(ctx, prompt)
}

type staticProvider struct {
	name  string
	model string
}

func (p *staticProvider) GenerateJSON(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (p *staticProvider) Name() string  { return p.name }
func (p *staticProvider) Model() string { return p.model }
