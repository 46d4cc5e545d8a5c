package pipeline

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/hoyack/gemsieve/internal/llm"
)

// breakerProvider wraps an llm.Provider with a circuit breaker so a
// flapping AI backend fails fast for the rest of a run instead of letting
// every remaining message retry into the same timeout (§5 "resource
// model" — a stalled AI backend must not stall the whole stage).
type breakerProvider struct {
	inner llm.Provider
	cb    *gobreaker.CircuitBreaker
}

func newBreakerProvider(inner llm.Provider, name string) *breakerProvider {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &breakerProvider{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Complete(ctx, req)
	})
	if err != nil {
		return llm.Response{}, err
	}
	return result.(llm.Response), nil
}
