package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/lexi/internal/store"
)

// ErrNotConfigured is returned by NewProviderFromEnv when no provider
// credentials are present. Callers run with the deterministic evaluator only.
var ErrNotConfigured = errors.New("no LLM provider configured")

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with logging, retry and circuit breaker
// middleware. eventRepo may be nil to skip request logging.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return wrapProvider(base, cfg, eventRepo, logger), nil
}

// wrapProvider applies the middleware chain:
// caller → breaker → retry → logging → base.
// The breaker sits outside the retry loop, so one exhausted retry sequence
// counts as a single breaker failure and every call gets its full budget.
func wrapProvider(base Provider, cfg Config, eventRepo store.EventRepo, logger *slog.Logger, opts ...RetryOption) Provider {
	p := base
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo)
	}
	p = WithRetry(p, cfg.Retry, opts...)
	return WithBreaker(p, cfg.Breaker, logger)
}

// NewProviderFromEnv builds a provider from LEXI_* variables, falling back
// to the vendor API key variables. It returns ErrNotConfigured when neither
// names usable credentials.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, logger *slog.Logger) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		// An explicit provider choice with missing credentials is an error.
		if os.Getenv("LEXI_LLM_PROVIDER") != "" {
			return nil, err
		}
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, ErrNotConfigured
		}
		discovered.Timeout = cfg.Timeout
		discovered.Retry = cfg.Retry
		discovered.Breaker = cfg.Breaker
		cfg = discovered
	}
	return NewProvider(ctx, cfg, eventRepo, logger)
}
