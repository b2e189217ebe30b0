package ai

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_NilIsNoop(t *testing.T) {
	var r *RateLimiter
	if err := r.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter should not block, got %v", err)
	}
	r.Backoff("10")
}

func TestRateLimiter_Unlimited(t *testing.T) {
	r := NewRateLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := r.Wait(ctx); err != nil {
			t.Fatalf("unexpected error on request %d: %v", i, err)
		}
	}
}

func TestRateLimiter_Paces(t *testing.T) {
	r := NewRateLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := r.Wait(ctx); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	if err := r.Wait(ctx); err == nil {
		t.Error("second request should not fit in the burst within the deadline")
	}
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(0, 0)
	r.Backoff("not-a-number")

	r.mu.Lock()
	wait := time.Until(r.retryAt)
	r.mu.Unlock()

	if wait <= 0 || wait > defaultRetryAfter {
		t.Errorf("expected default backoff, got %v", wait)
	}
}
