package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	"github.com/egov-portal/portal-backend/pkg/store/memstore"
)

func TestAllowUntilCap(t *testing.T) {
	l := New(memstore.New(), Config{MaxAttempts: 5})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := l.Allow(ctx, "203.0.113.7"); err != nil {
			t.Fatalf("attempt %d unexpectedly limited: %v", i, err)
		}
	}

	err := l.Allow(ctx, "203.0.113.7")
	if !apierrors.IsKind(err, apierrors.KindRateLimited) {
		t.Fatalf("sixth attempt error = %v, want RATE_LIMITED", err)
	}
	apiErr := apierrors.As(err)
	retryAfter, ok := apiErr.Details["retryAfter"].(int)
	if !ok || retryAfter <= 0 {
		t.Errorf("retryAfter = %v, want positive seconds", apiErr.Details["retryAfter"])
	}

	// a different key is unaffected
	if err := l.Allow(ctx, "198.51.100.1"); err != nil {
		t.Errorf("other key limited: %v", err)
	}
}

func TestResetClearsWindow(t *testing.T) {
	l := New(memstore.New(), Config{MaxAttempts: 2})
	ctx := context.Background()

	l.Allow(ctx, "k")
	l.Allow(ctx, "k")
	if err := l.Allow(ctx, "k"); !apierrors.IsKind(err, apierrors.KindRateLimited) {
		t.Fatalf("error = %v, want RATE_LIMITED", err)
	}

	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if err := l.Allow(ctx, "k"); err != nil {
		t.Errorf("attempt after reset limited: %v", err)
	}
}

func TestWindowElapses(t *testing.T) {
	l := New(memstore.New(), Config{MaxAttempts: 1, Window: 20 * time.Millisecond})
	ctx := context.Background()

	l.Allow(ctx, "k")
	if err := l.Allow(ctx, "k"); !apierrors.IsKind(err, apierrors.KindRateLimited) {
		t.Fatalf("error = %v, want RATE_LIMITED", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := l.Allow(ctx, "k"); err != nil {
		t.Errorf("attempt after elapsed window limited: %v", err)
	}
}

func TestSweepLifecycle(t *testing.T) {
	s := memstore.New()
	l := New(s, Config{Window: 10 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	ctx := context.Background()

	l.Allow(ctx, "stale")
	l.StartSweep()
	defer l.StopSweep()

	time.Sleep(40 * time.Millisecond)
	if _, err := s.GetWindow(ctx, "stale"); err == nil {
		t.Error("stale window survived the sweep")
	}

	// StopSweep is idempotent and safe to call twice
	l.StopSweep()
	l.StopSweep()
}
