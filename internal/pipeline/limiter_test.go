package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiterSpacing(t *testing.T) {
	// 20 rps -> 50ms minimum spacing between call starts.
	l := NewLimiter(20)
	if l.Interval() != 50*time.Millisecond {
		t.Fatalf("interval = %v, expected 50ms", l.Interval())
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Three starts need two full intervals between them.
	if elapsed < 100*time.Millisecond-5*time.Millisecond {
		t.Errorf("three waits finished in %v, expected >= ~100ms", elapsed)
	}
}

func TestLimiterConcurrentWaiters(t *testing.T) {
	l := NewLimiter(50) // 20ms interval

	var mu sync.Mutex
	var starts []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(starts) != 4 {
		t.Fatalf("expected 4 recorded starts, got %d", len(starts))
	}

	first := starts[0]
	last := starts[0]
	for _, s := range starts[1:] {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	if spread := last.Sub(first); spread < 60*time.Millisecond-10*time.Millisecond {
		t.Errorf("four starts spread over %v, expected >= ~60ms", spread)
	}
}

func TestLimiterCancelledWait(t *testing.T) {
	l := NewLimiter(1) // 1s interval, far longer than the test

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := l.Wait(ctx)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancelled Wait did not return promptly")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled limiter should not block")
	}
}
