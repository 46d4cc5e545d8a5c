// Package llm is gemsieve's provider-agnostic language-model transport.
// Every stage that calls an LLM (classify, engage) talks to the Provider
// interface only; which vendor answers is a config.AIConfig.Provider
// choice, not something stage code ever branches on (§6.3, §6.4).
package llm

import (
	"context"
	"fmt"

	"github.com/hoyack/gemsieve/internal/config"
)

// Request is one completion call.
type Request struct {
	System   string
	User     string
	Model    string // overrides config.AI.Model when set
	JSONMode bool   // ask the provider to constrain output to a JSON object
}

// Response is a completed call, kept around for audit logging (§4.10).
type Response struct {
	Text       string
	ModelUsed  string
	RawPayload string // the provider's raw response body, for the audit trail
}

// Provider completes a single prompt against one language model.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// New builds the configured Provider from cfg.AI (§6.2 ai.provider).
func New(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
