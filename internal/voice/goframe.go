package voice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/goframe/llms"
	"github.com/sevigo/goframe/llms/gemini"
	"github.com/sevigo/goframe/llms/ollama"

	"github.com/mallku/firecircle/internal/config"
)

// goframeReviewer serves the gemini and ollama providers through the shared
// llms.Model interface.
type goframeReviewer struct {
	name   string
	model  llms.Model
	logger *slog.Logger
}

func newGoframeReviewer(ctx context.Context, name string, vc config.VoiceConfig, logger *slog.Logger) (Reviewer, error) {
	var (
		model llms.Model
		err   error
	)

	switch vc.Provider {
	case config.ProviderGemini:
		model, err = gemini.New(ctx,
			gemini.WithModel(vc.Model),
			gemini.WithAPIKey(vc.APIKey),
		)
	case config.ProviderOllama:
		opts := []ollama.Option{
			ollama.WithModel(vc.Model),
			ollama.WithHTTPClient(newProviderHTTPClient()),
			ollama.WithLogger(logger),
		}
		if vc.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(vc.BaseURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s is not served by goframe", vc.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s model: %w", vc.Provider, err)
	}

	return &goframeReviewer{name: name, model: model, logger: logger}, nil
}

func (r *goframeReviewer) Name() string { return r.name }

func (r *goframeReviewer) Review(ctx context.Context, prompt string) (*RawResponse, error) {
	start := time.Now()
	text, err := r.model.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	r.logger.Debug("voice responded",
		"voice", r.name,
		"duration_ms", time.Since(start).Milliseconds())

	return &RawResponse{Text: text}, nil
}
