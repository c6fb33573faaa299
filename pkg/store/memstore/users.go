package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

func (s *MemStore) AddUser(ctx context.Context, user userTypes.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emailIndex[user.Email]; ok {
		return "", store.ErrDuplicateEmail
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	s.users[user.ID] = user
	s.emailIndex[user.Email] = user.ID
	return user.ID, nil
}

func (s *MemStore) GetUser(ctx context.Context, userID string) (userTypes.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return userTypes.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (userTypes.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.emailIndex[email]
	if !ok {
		return userTypes.User{}, store.ErrNotFound
	}
	return s.users[userID], nil
}

func (s *MemStore) ReplaceUser(ctx context.Context, user userTypes.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if old.Email != user.Email {
		delete(s.emailIndex, old.Email)
		s.emailIndex[user.Email] = user.ID
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemStore) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.emailIndex, user.Email)
	delete(s.users, userID)
	return nil
}
