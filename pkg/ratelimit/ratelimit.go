// Package ratelimit throttles authentication attempts per client key.
// The window opens at a key's first attempt and closes once the window
// size has elapsed; a background sweep drops stale windows.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	"github.com/egov-portal/portal-backend/pkg/store"
)

const (
	DEFAULT_WINDOW         = 15 * time.Minute
	DEFAULT_MAX_ATTEMPTS   = 5
	DEFAULT_SWEEP_INTERVAL = time.Minute
)

type Config struct {
	Window        time.Duration
	MaxAttempts   int
	SweepInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window == 0 {
		c.Window = DEFAULT_WINDOW
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DEFAULT_SWEEP_INTERVAL
	}
	return c
}

type Limiter struct {
	windows store.RateLimitStore
	cfg     Config

	stopSweep chan struct{}
	sweepDone chan struct{}
}

func New(windows store.RateLimitStore, cfg Config) *Limiter {
	return &Limiter{
		windows: windows,
		cfg:     cfg.withDefaults(),
	}
}

// Allow records an attempt for the key. Once the attempt cap is exceeded
// within the window it returns RATE_LIMITED carrying the remaining
// window time as retryAfter seconds.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	win, err := l.windows.IncrementAttempt(ctx, key, l.cfg.Window)
	if err != nil {
		return err
	}
	if win.Attempts <= l.cfg.MaxAttempts {
		return nil
	}

	remaining := l.cfg.Window - time.Since(win.FirstAttempt)
	retryAfter := int(math.Ceil(remaining.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return apierrors.New(apierrors.KindRateLimited, "too many attempts, try again later").
		WithDetail("retryAfter", retryAfter)
}

// Reset clears the key's window. Route handlers call this after a
// successful login so a fresh failure budget applies.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.windows.ResetWindow(ctx, key)
}

// StartSweep launches the periodic cleanup of elapsed windows. It must
// be stopped with StopSweep at shutdown.
func (l *Limiter) StartSweep() {
	if l.stopSweep != nil {
		return
	}
	l.stopSweep = make(chan struct{})
	l.sweepDone = make(chan struct{})

	go func() {
		defer close(l.sweepDone)
		ticker := time.NewTicker(l.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				removed, err := l.windows.SweepExpired(ctx, l.cfg.Window)
				cancel()
				if err != nil {
					slog.Error("rate limit sweep failed", slog.String("error", err.Error()))
					continue
				}
				if removed > 0 {
					slog.Debug("rate limit sweep removed windows", slog.Int("count", removed))
				}
			case <-l.stopSweep:
				return
			}
		}
	}()
}

// StopSweep stops the background sweep and waits for it to exit.
func (l *Limiter) StopSweep() {
	if l.stopSweep == nil {
		return
	}
	close(l.stopSweep)
	<-l.sweepDone
	l.stopSweep = nil
	l.sweepDone = nil
}
