package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hoyack/gemsieve/internal/config"
)

// AnthropicClient wraps the official SDK, the only provider in this
// package that isn't a hand-rolled HTTP client — Anthropic publishes a
// real Go client and the corpus uses it elsewhere (§6.2 ai.provider).
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

func NewAnthropic(cfg config.AIConfig) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	userContent := req.User
	if req.JSONMode {
		userContent += "\n\nRespond with a single valid JSON object and nothing else."
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: req.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContent)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	raw, _ := json.Marshal(msg)
	return Response{
		Text:       text,
		ModelUsed:  model,
		RawPayload: string(raw),
	}, nil
}
