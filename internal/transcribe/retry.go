package transcribe

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkmark-app/inkmark/internal/providers"
)

const (
	lineRetryStep = 200 * time.Millisecond
	pageRetryStep = 250 * time.Millisecond
)

// retryText reruns call after recoverable failures, waiting step*(attempt+1)
// between tries, until maxRetries retries are spent, the failure is not
// recoverable, or ctx is cancelled.
func retryText(ctx context.Context, what string, maxRetries int, step time.Duration, call func(context.Context) (string, error)) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if !providers.Recoverable(err) || attempt >= maxRetries || ctx.Err() != nil {
			return "", err
		}

		delay := step * time.Duration(attempt+1)
		slog.Warn("Retrying after recoverable failure", "op", what, "attempt", attempt+1, "delay", delay, "error", err)
		if werr := wait(ctx, delay); werr != nil {
			return "", werr
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
