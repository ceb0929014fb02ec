package pipeline

import (
	"context"
	"sync"
	"time"
)

// DefaultRequestsPerSecond is the tuned provider call rate.
const DefaultRequestsPerSecond = 2.0

// Limiter spaces call starts so that no two begin closer together than
// 1000/requestsPerSecond milliseconds. Waiters are served in arrival order:
// each claims the next start slot and sleeps until it, so this is a FIFO
// interval gate, not a token bucket - there is no burst credit to spend.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewLimiter creates a limiter for the given rate. A rate <= 0 disables
// spacing (every Wait returns immediately).
func NewLimiter(requestsPerSecond float64) *Limiter {
	l := &Limiter{}
	if requestsPerSecond > 0 {
		l.interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return l
}

// Interval reports the minimum spacing between call starts.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until this caller's start slot arrives or ctx is cancelled.
// A cancelled wait gives up its slot's turn but keeps the spacing guarantee
// for later callers.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	start := l.next
	if start.Before(now) {
		start = now
	}
	l.next = start.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
