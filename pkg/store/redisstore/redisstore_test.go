package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/egov-portal/portal-backend/pkg/store"
)

func newTestStore(t *testing.T, window time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, New(client, window)
}

func TestIncrementAttempt(t *testing.T) {
	_, s := newTestStore(t, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		win, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if win.Attempts != i {
			t.Errorf("expected %d attempts, got %d", i, win.Attempts)
		}
		if win.FirstAttempt.IsZero() {
			t.Error("expected a window start time")
		}
	}

	// distinct key keeps its own counter
	win, err := s.IncrementAttempt(ctx, "login:10.0.0.2", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win.Attempts != 1 {
		t.Errorf("expected 1 attempt for second key, got %d", win.Attempts)
	}
}

func TestWindowExpiry(t *testing.T) {
	mr, s := newTestStore(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	mr.FastForward(time.Minute + time.Second)

	if _, err := s.GetWindow(ctx, "login:10.0.0.1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after the window elapsed, got %v", err)
	}

	win, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win.Attempts != 1 {
		t.Errorf("expected fresh window to start at 1, got %d", win.Attempts)
	}
}

func TestGetWindow(t *testing.T) {
	_, s := newTestStore(t, time.Minute)
	ctx := context.Background()

	if _, err := s.GetWindow(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing key, got %v", err)
	}

	if _, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	win, err := s.GetWindow(ctx, "login:10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", win.Attempts)
	}
	if time.Since(win.FirstAttempt) > 5*time.Second {
		t.Errorf("window start too far in the past: %v", win.FirstAttempt)
	}
}

func TestResetWindow(t *testing.T) {
	_, s := newTestStore(t, time.Minute)
	ctx := context.Background()

	if _, err := s.IncrementAttempt(ctx, "login:10.0.0.1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ResetWindow(ctx, "login:10.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetWindow(ctx, "login:10.0.0.1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after reset, got %v", err)
	}

	// resetting a missing key is not an error
	if err := s.ResetWindow(ctx, "login:10.0.0.9"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSweepExpiredIsNoop(t *testing.T) {
	_, s := newTestStore(t, time.Minute)

	removed, err := s.SweepExpired(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
}
