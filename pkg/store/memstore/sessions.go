package memstore

import (
	"context"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

func (s *MemStore) SaveSession(ctx context.Context, session userTypes.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

func (s *MemStore) GetSession(ctx context.Context, sessionID string) (userTypes.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return userTypes.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (s *MemStore) UpdateSession(ctx context.Context, session userTypes.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemStore) GetSessionsForUser(ctx context.Context, userID string) ([]userTypes.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := []userTypes.Session{}
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (s *MemStore) IndexRefreshToken(ctx context.Context, refreshToken string, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshIndex[refreshToken] = sessionID
	return nil
}

func (s *MemStore) LookupRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.refreshIndex[refreshToken]
	if !ok {
		return "", store.ErrNotFound
	}
	return sessionID, nil
}

func (s *MemStore) RemoveRefreshToken(ctx context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refreshIndex, refreshToken)
	return nil
}
