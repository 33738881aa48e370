// Package call wraps one fallible external call with classification,
// bounded retries and exponential backoff.
package call

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/skylark-tools/letterpipe/pkg/pipeline/core"
)

// ErrEmptyContent reports a call that succeeded at the transport level
// but violated the content contract (empty or whitespace-only text).
// Content-contract violations are never retried.
var ErrEmptyContent = errors.New("call returned empty content")

// Operation is one zero-argument external call returning text.
type Operation func(ctx context.Context) (string, error)

type Options struct {
	// MaxRetries bounds additional attempts after the first. Negative
	// values are treated as zero.
	MaxRetries int
	// BackoffInitial is the sleep before the first retry; it doubles
	// on every subsequent retry.
	BackoffInitial time.Duration
	// BackoffMax caps the doubling. Zero means uncapped.
	BackoffMax time.Duration

	// Sleep suspends between attempts. Tests inject a recorder here;
	// the default honors ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	return o
}

// Defaults are the stock engine settings: 3 retries, 1s initial backoff.
func Defaults() Options {
	return Options{MaxRetries: 3, BackoffInitial: time.Second}
}

// Invoke executes op, retrying classified-retryable failures with
// doubling backoff up to opts.MaxRetries extra attempts. Fatal
// failures and content-contract violations return immediately. Each
// Invoke is independent; the engine holds no cross-call state.
func Invoke(ctx context.Context, op Operation, opts Options) (string, error) {
	opts = opts.withDefaults()

	delay := opts.BackoffInitial
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		content, err := op(ctx)
		if err == nil {
			if strings.TrimSpace(content) == "" {
				return "", ErrEmptyContent
			}
			return content, nil
		}
		lastErr = err

		class := core.Classify(err)
		if !class.Retryable() {
			slog.Debug("call failed, not retryable", "class", class.String(), "error", err)
			return "", err
		}
		if attempt >= opts.MaxRetries {
			break
		}

		slog.Debug("call failed, backing off",
			"class", class.String(), "attempt", attempt+1, "delay", delay, "error", err)
		if err := opts.Sleep(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
		if opts.BackoffMax > 0 && delay > opts.BackoffMax {
			delay = opts.BackoffMax
		}
	}
	return "", lastErr
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
