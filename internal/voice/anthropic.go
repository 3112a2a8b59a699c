package voice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mallku/firecircle/internal/config"
)

type anthropicReviewer struct {
	name   string
	client anthropic.Client
	model  string
	logger *slog.Logger
}

// newAnthropicReviewer creates a Reviewer backed by the Anthropic Messages API.
func newAnthropicReviewer(name string, vc config.VoiceConfig, logger *slog.Logger) (Reviewer, error) {
	if vc.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(vc.APIKey),
	}
	if vc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(vc.BaseURL))
	}

	return &anthropicReviewer{
		name:   name,
		client: anthropic.NewClient(opts...),
		model:  vc.Model,
		logger: logger,
	}, nil
}

func (r *anthropicReviewer) Name() string { return r.name }

func (r *anthropicReviewer) Review(ctx context.Context, prompt string) (*RawResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	start := time.Now()
	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic review request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	r.logger.Debug("voice responded",
		"voice", r.name,
		"model", r.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return &RawResponse{Text: text}, nil
}
