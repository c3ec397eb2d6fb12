package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := NewLimiter(0, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestRateIsEnforced(t *testing.T) {
	// 50 rps -> 20ms interval; 3 waits should take at least ~40ms
	l := NewLimiter(50, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("3 waits at 50rps finished in %v, expected >= 30ms", elapsed)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := NewLimiter(0.1, 0) // 10s interval, will not tick during the test
	defer l.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := l.Wait(ctx)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
