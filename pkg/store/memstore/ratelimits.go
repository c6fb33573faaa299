package memstore

import (
	"context"
	"time"

	"github.com/egov-portal/portal-backend/pkg/store"
)

func (s *MemStore) IncrementAttempt(ctx context.Context, key string, window time.Duration) (store.RateLimitWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	win, ok := s.rateLimits[key]
	if !ok || now.Sub(win.FirstAttempt) >= window {
		win = store.RateLimitWindow{FirstAttempt: now}
	}
	win.Attempts++
	s.rateLimits[key] = win
	return win, nil
}

func (s *MemStore) GetWindow(ctx context.Context, key string) (store.RateLimitWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	win, ok := s.rateLimits[key]
	if !ok {
		return store.RateLimitWindow{}, store.ErrNotFound
	}
	return win, nil
}

func (s *MemStore) ResetWindow(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rateLimits, key)
	return nil
}

func (s *MemStore) SweepExpired(ctx context.Context, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, win := range s.rateLimits {
		if now.Sub(win.FirstAttempt) >= window {
			delete(s.rateLimits, key)
			removed++
		}
	}
	return removed, nil
}
