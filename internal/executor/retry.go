package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/llm"
)

// RetryPolicy — повтор вызовов модели.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy — три попытки, exponential backoff от 1s до 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 30 * time.Second}
}

// backoff вычисляет задержку перед попыткой attempt (с 1):
// InitialDelay * 2^(attempt-1), не больше MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// retryingChat повторяет неудачные вызовы модели.
// Ошибки создания адаптера и отмена контекста не повторяются.
type retryingChat struct {
	inner  llm.ChatCapability
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

func (c *retryingChat) Provider() domain.Provider { return c.inner.Provider() }
func (c *retryingChat) Model() string             { return c.inner.Model() }

func (c *retryingChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	attempts := c.policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		reply, err := c.inner.Chat(ctx, messages)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if attempt >= attempts || !retryable(err) {
			break
		}

		delay := c.policy.backoff(attempt)
		c.logger.Debug("retrying llm call",
			"provider", c.inner.Provider(),
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, llm.ErrConstruction),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
