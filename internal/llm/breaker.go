package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// ErrBreakerOpen is returned when the circuit breaker rejects a request
// without reaching the provider.
var ErrBreakerOpen = errors.New("llm circuit breaker open")

// BreakerConfig configures the circuit breaker decorator.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero disables the breaker.
	ConsecutiveFailures int
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// BreakerProvider stops calling a failing provider for a while so the
// caller can fall back immediately instead of paying the full retry cost.
type BreakerProvider struct {
	inner  Provider
	cb     circuitbreaker.CircuitBreaker[*Response]
	logger *slog.Logger
}

// WithBreaker wraps a Provider with a circuit breaker. A zero
// ConsecutiveFailures returns p unchanged.
func WithBreaker(p Provider, cfg BreakerConfig, logger *slog.Logger) Provider {
	if cfg.ConsecutiveFailures <= 0 {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	bp := &BreakerProvider{inner: p, logger: logger}
	bp.cb = circuitbreaker.New[*Response](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			bp.logger.Warn("llm circuit breaker state change",
				"model", p.ModelID(),
				"from", from.String(),
				"to", to.String())
		},
	})
	return bp
}

func (b *BreakerProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	called := false
	resp, err := b.cb.Execute(ctx, func(ctx context.Context) (*Response, error) {
		called = true
		return b.inner.Generate(ctx, req)
	})
	if err != nil && !called {
		return nil, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
	}
	return resp, err
}

func (b *BreakerProvider) ModelID() string {
	return b.inner.ModelID()
}
