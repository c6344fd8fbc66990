package llm

import (
	"context"
	"log/slog"
	"time"

	"agentcore/pkg/config"
)

// FallbackBackend tries a list of backends in order, retrying transient
// failures on each before moving on. It satisfies Backend so a Model can
// hold a whole escalation chain behind the ordinary contract.
type FallbackBackend struct {
	backends   []Backend
	maxRetries int
	retryDelay time.Duration
}

// NewFallbackBackend builds a fallback chain with the retry policy from the
// system config.
func NewFallbackBackend(backends []Backend, sys *config.SystemConfig) *FallbackBackend {
	if sys == nil {
		sys = config.DefaultSystemConfig()
	}
	return &FallbackBackend{
		backends:   backends,
		maxRetries: sys.MaxRetries,
		retryDelay: time.Duration(sys.RetryDelayMs) * time.Millisecond,
	}
}

func (f *FallbackBackend) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	var lastErr error
	for i, b := range f.backends {
		if i > 0 {
			slog.Warn("Backend failed, trying fallback", "index", i)
		}

		retries := f.maxRetries
		if retries < 1 {
			retries = 1
		}
		for attempt := 1; attempt <= retries; attempt++ {
			if attempt > 1 {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(time.Duration(attempt-1) * f.retryDelay):
				}
			}
			text, err := b.Generate(ctx, prompt, temperature, maxTokens)
			if err == nil {
				return text, nil
			}
			lastErr = err
			if b.IsTransientError(err) && attempt < retries {
				slog.Warn("Transient backend error, retrying", "attempt", attempt, "error", err)
				continue
			}
			break
		}
	}
	if lastErr == nil {
		lastErr = Errorf(KindBackendInit, "no backends configured")
	}
	return "", lastErr
}

func (f *FallbackBackend) GenerateStream(ctx context.Context, prompt string, temperature float32, maxTokens int, fn StreamFunc) error {
	emitted := false
	wrapped := func(token string) {
		emitted = true
		fn(token)
	}
	var lastErr error
	for i, b := range f.backends {
		if i > 0 {
			slog.Warn("Backend failed, trying fallback", "index", i)
		}
		err := b.GenerateStream(ctx, prompt, temperature, maxTokens, wrapped)
		if err == nil {
			return nil
		}
		lastErr = err
		if emitted {
			// Tokens already reached the caller; switching backends now
			// would replay content.
			return err
		}
	}
	if lastErr == nil {
		lastErr = Errorf(KindBackendInit, "no backends configured")
	}
	return lastErr
}

func (f *FallbackBackend) Info() Info {
	if len(f.backends) > 0 {
		return f.backends[0].Info()
	}
	return Info{}
}

func (f *FallbackBackend) Warmup(ctx context.Context) error {
	var lastErr error
	for _, b := range f.backends {
		if err := b.Warmup(ctx); err != nil {
			slog.Warn("Warmup failed", "backend", b.Info().Backend, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

// IsTransientError always reports false: a fallback chain failing means
// every member already exhausted its own retries.
func (f *FallbackBackend) IsTransientError(err error) bool {
	return false
}

func (f *FallbackBackend) Close() error {
	var firstErr error
	for _, b := range f.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
