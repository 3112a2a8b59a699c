// Package voice provides the reviewer adapters that connect chapters to
// external language-model providers, the prompt templates they are fed,
// and the parser that turns their free-text output into structured comments.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mallku/firecircle/internal/config"
)

// RawResponse is the unstructured output of one reviewer call.
type RawResponse struct {
	Text string
}

// Reviewer is the external collaborator boundary: one review request in,
// free text out. Implementations wrap a provider SDK or, in tests, a fake.
type Reviewer interface {
	// Name returns the voice name this reviewer serves.
	Name() string
	// Review submits one rendered chapter prompt and returns the raw
	// response text. Implementations must respect ctx cancellation.
	Review(ctx context.Context, prompt string) (*RawResponse, error)
}

// Registry holds one connected Reviewer per configured voice, together with
// the provider name serving it (used for prompt variant selection).
type Registry struct {
	reviewers map[string]Reviewer
	providers map[string]Provider
}

// NewRegistry connects a Reviewer for every voice in the configuration.
// An unsupported provider here is a configuration error: the config layer
// validates providers first, so this is a belt check only.
func NewRegistry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	reviewers := make(map[string]Reviewer, len(cfg.Voices))
	providers := make(map[string]Provider, len(cfg.Voices))
	for name, vc := range cfg.Voices {
		r, err := newReviewer(ctx, name, vc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect voice %q: %w", name, err)
		}
		reviewers[name] = r
		providers[name] = Provider(vc.Provider)
	}
	return &Registry{reviewers: reviewers, providers: providers}, nil
}

// NewRegistryWith builds a registry from pre-constructed reviewers. Used by
// tests and dry runs to inject fakes without touching provider config.
func NewRegistryWith(reviewers ...Reviewer) *Registry {
	m := make(map[string]Reviewer, len(reviewers))
	p := make(map[string]Provider, len(reviewers))
	for _, r := range reviewers {
		m[r.Name()] = r
		p[r.Name()] = DefaultProvider
	}
	return &Registry{reviewers: m, providers: p}
}

// Get returns the reviewer serving a voice name.
func (r *Registry) Get(voice string) (Reviewer, error) {
	rev, ok := r.reviewers[voice]
	if !ok {
		return nil, fmt.Errorf("no reviewer connected for voice %q", voice)
	}
	return rev, nil
}

// ProviderOf returns the provider name serving a voice, defaulting to the
// provider-neutral prompt variant for unknown voices.
func (r *Registry) ProviderOf(voice string) Provider {
	if p, ok := r.providers[voice]; ok {
		return p
	}
	return DefaultProvider
}

// Names returns all connected voice names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.reviewers))
	for name := range r.reviewers {
		names = append(names, name)
	}
	return names
}

func newReviewer(ctx context.Context, name string, vc config.VoiceConfig, logger *slog.Logger) (Reviewer, error) {
	switch vc.Provider {
	case config.ProviderAnthropic:
		return newAnthropicReviewer(name, vc, logger)
	case config.ProviderOpenAI:
		return newOpenAIReviewer(name, vc, logger)
	case config.ProviderGemini, config.ProviderOllama:
		return newGoframeReviewer(ctx, name, vc, logger)
	case config.ProviderFake:
		return NewFakeReviewer(name, ""), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", vc.Provider)
	}
}

// newProviderHTTPClient creates an HTTP client with longer timeouts for LLM
// requests. Local model servers in particular can take a while to respond.
func newProviderHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   5 * time.Minute,
	}
}
