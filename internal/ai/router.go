package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoProvider is returned when no provider has been registered, which
// means no API key was configured.
var ErrNoProvider = errors.New("no AI provider configured")

// Router tries registered providers in registration order.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the end of the fallback chain. Registering a
// name twice replaces the provider but keeps its position.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Complete sends req to each provider in turn and returns the first
// success. The error of the last provider is wrapped when all fail.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.fallback) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var lastErr error
	for _, name := range r.fallback {
		provider := r.providers[name]

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"error", err,
			)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		slog.Debug("AI request completed",
			"provider", name,
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	if len(r.fallback) == 1 {
		return CompletionResponse{}, lastErr
	}
	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", lastErr)
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// Providers returns the registered provider names in fallback order.
func (r *Router) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fallback...)
}

// HealthCheck reports the first provider whose health check fails.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.fallback {
		if err := r.providers[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("provider %s: %w", name, err)
		}
	}
	return nil
}

// Models returns the models of every registered provider keyed by provider
// name.
func (r *Router) Models() map[string][]ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]ModelInfo, len(r.providers))
	for name, p := range r.providers {
		out[name] = p.Models()
	}
	return out
}

// Endpoint is the credential and model override of one OpenAI-compatible
// service. A blank APIKey leaves the service unregistered.
type Endpoint struct {
	APIKey string
	Model  string
}

// NewDefaultRouter registers Groq and then OpenAI for each endpoint that
// has an API key.
func NewDefaultRouter(groq, openai Endpoint) *Router {
	router := NewRouter()
	if groq.APIKey != "" {
		router.Register("groq", NewGroqProvider(groq.APIKey, groq.options()...))
	}
	if openai.APIKey != "" {
		router.Register("openai", NewOpenAIProvider(openai.APIKey, openai.options()...))
	}
	return router
}

func (e Endpoint) options() []OpenAIOption {
	if e.Model == "" {
		return nil
	}
	return []OpenAIOption{WithModel(e.Model)}
}
