package voice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mallku/firecircle/internal/config"
)

type openaiReviewer struct {
	name   string
	client openai.Client
	model  string
	logger *slog.Logger
}

// newOpenAIReviewer creates a Reviewer backed by the OpenAI chat API.
// A custom BaseURL allows routing to any OpenAI-compatible endpoint.
func newOpenAIReviewer(name string, vc config.VoiceConfig, logger *slog.Logger) (Reviewer, error) {
	if vc.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(vc.APIKey),
		option.WithHTTPClient(newProviderHTTPClient()),
	}
	if vc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(vc.BaseURL))
	}

	return &openaiReviewer{
		name:   name,
		client: openai.NewClient(opts...),
		model:  vc.Model,
		logger: logger,
	}, nil
}

func (r *openaiReviewer) Name() string { return r.name }

func (r *openaiReviewer) Review(ctx context.Context, prompt string) (*RawResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai review request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	r.logger.Debug("voice responded",
		"voice", r.name,
		"model", r.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return &RawResponse{Text: resp.Choices[0].Message.Content}, nil
}
