// Package session issues and tracks the access/refresh token pairs of
// portal users. Access tokens are short-lived signed JWTs, refresh tokens
// opaque random strings indexed back to the session record. A user holds
// at most a configured number of concurrent sessions; the least recently
// active one is revoked when the cap is exceeded.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	jwthandling "github.com/egov-portal/portal-backend/pkg/jwt-handling"
	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
	umUtils "github.com/egov-portal/portal-backend/pkg/user-management/utils"
)

const (
	DEFAULT_ACCESS_TOKEN_TTL      = 15 * time.Minute
	DEFAULT_REFRESH_TOKEN_TTL     = 7 * 24 * time.Hour
	DEFAULT_MAX_SESSIONS_PER_USER = 5
)

type Config struct {
	TokenSignKey       string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	MaxSessionsPerUser int
}

func (c Config) withDefaults() Config {
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = DEFAULT_ACCESS_TOKEN_TTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = DEFAULT_REFRESH_TOKEN_TTL
	}
	if c.MaxSessionsPerUser == 0 {
		c.MaxSessionsPerUser = DEFAULT_MAX_SESSIONS_PER_USER
	}
	return c
}

type Service struct {
	sessions store.SessionStore
	cfg      Config
}

func NewService(sessions store.SessionStore, cfg Config) *Service {
	return &Service{
		sessions: sessions,
		cfg:      cfg.withDefaults(),
	}
}

func (s *Service) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// CreateSession issues a fresh access/refresh token pair for the user and
// persists the session record. After insertion the per-user session cap
// is enforced by revoking the least recently active surplus sessions.
func (s *Service) CreateSession(ctx context.Context, user userTypes.User, meta userTypes.SessionMetadata, twoFactorVerified bool) (userTypes.Session, error) {
	sessionID, err := umUtils.GenerateSessionID()
	if err != nil {
		return userTypes.Session{}, err
	}

	accessToken, err := jwthandling.GenerateNewPortalUserToken(
		s.cfg.AccessTokenTTL,
		user.ID,
		user.Email,
		user.Role,
		sessionID,
		twoFactorVerified,
		s.cfg.TokenSignKey,
	)
	if err != nil {
		return userTypes.Session{}, err
	}

	refreshToken, err := umUtils.GenerateRefreshToken()
	if err != nil {
		return userTypes.Session{}, err
	}

	now := time.Now()
	session := userTypes.Session{
		ID:               sessionID,
		UserID:           user.ID,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		DeviceName:       meta.DeviceName,
		IP:               meta.IP,
		UserAgent:        meta.UserAgent,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		LastActiveAt:     now,
		CreatedAt:        now,
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return userTypes.Session{}, err
	}
	if err := s.sessions.IndexRefreshToken(ctx, refreshToken, sessionID); err != nil {
		return userTypes.Session{}, err
	}

	if err := s.enforceSessionCap(ctx, user.ID); err != nil {
		slog.Error("failed to enforce session cap", slog.String("userID", user.ID), slog.String("error", err.Error()))
	}

	return session, nil
}

// RefreshSession exchanges a refresh token for a new access token. The
// session id and claims are reused; only the access window moves, the
// refresh expiry is never extended.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (userTypes.Session, error) {
	sessionID, err := s.sessions.LookupRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return userTypes.Session{}, apierrors.New(apierrors.KindInvalidRefreshToken, "invalid refresh token")
		}
		return userTypes.Session{}, err
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// dangling index entry, clean it up
			if err := s.sessions.RemoveRefreshToken(ctx, refreshToken); err != nil {
				slog.Error("failed to remove dangling refresh token", slog.String("error", err.Error()))
			}
			return userTypes.Session{}, apierrors.New(apierrors.KindSessionNotFound, "session not found")
		}
		return userTypes.Session{}, err
	}

	if session.IsRevoked() {
		return userTypes.Session{}, apierrors.New(apierrors.KindSessionRevoked, "session revoked")
	}

	if session.IsRefreshExpired() {
		if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
			slog.Error("failed to delete expired session", slog.String("error", err.Error()))
		}
		if err := s.sessions.RemoveRefreshToken(ctx, refreshToken); err != nil {
			slog.Error("failed to remove expired refresh token", slog.String("error", err.Error()))
		}
		return userTypes.Session{}, apierrors.New(apierrors.KindRefreshTokenExpired, "refresh token expired")
	}

	claims, err := jwthandling.ParsePortalUserTokenIgnoringExpiration(session.AccessToken, s.cfg.TokenSignKey)
	if err != nil {
		return userTypes.Session{}, apierrors.New(apierrors.KindInvalidToken, "stored access token unreadable")
	}

	accessToken, err := jwthandling.GenerateNewPortalUserToken(
		s.cfg.AccessTokenTTL,
		claims.Subject,
		claims.Email,
		claims.Role,
		session.ID,
		claims.TwoFactorVerified,
		s.cfg.TokenSignKey,
	)
	if err != nil {
		return userTypes.Session{}, err
	}

	now := time.Now()
	session.AccessToken = accessToken
	session.AccessExpiresAt = now.Add(s.cfg.AccessTokenTTL)
	session.LastActiveAt = now
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return userTypes.Session{}, err
	}
	return session, nil
}

// ValidateSession verifies an access token's signature and expiry,
// reporting TOKEN_EXPIRED and INVALID_TOKEN as distinct kinds.
func (s *Service) ValidateSession(token string) (*jwthandling.PortalUserClaims, error) {
	claims, err := jwthandling.ValidatePortalUserToken(token, s.cfg.TokenSignKey)
	if err != nil {
		if errors.Is(err, jwthandling.ErrTokenExpired) {
			return nil, apierrors.New(apierrors.KindTokenExpired, "access token expired")
		}
		return nil, apierrors.New(apierrors.KindInvalidToken, "invalid access token")
	}
	return claims, nil
}

// RevokeSession marks the session revoked and drops its refresh index
// entry. Revoking an already revoked or missing session is not an error.
func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if session.IsRevoked() {
		return nil
	}

	session.RevokedAt = time.Now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return err
	}
	return s.sessions.RemoveRefreshToken(ctx, session.RefreshToken)
}

// RevokeAllUserSessions revokes every live session of the user, keeping
// exceptSessionID alive when non-empty. Returns the number of revoked
// sessions.
func (s *Service) RevokeAllUserSessions(ctx context.Context, userID string, exceptSessionID string) (int, error) {
	sessions, err := s.sessions.GetSessionsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, session := range sessions {
		if session.IsRevoked() || session.ID == exceptSessionID {
			continue
		}
		if err := s.RevokeSession(ctx, session.ID); err != nil {
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// GetUserSessions lists the user's live sessions, most recently active
// first, for the "active sessions" display.
func (s *Service) GetUserSessions(ctx context.Context, userID string) ([]userTypes.Session, error) {
	sessions, err := s.sessions.GetSessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	live := []userTypes.Session{}
	for _, session := range sessions {
		if session.IsRevoked() || session.IsRefreshExpired() {
			continue
		}
		live = append(live, session)
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].LastActiveAt.After(live[j].LastActiveAt)
	})
	return live, nil
}

// UpdateSessionActivity bumps the session's last-active timestamp, called
// on every authenticated request.
func (s *Service) UpdateSessionActivity(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	session.LastActiveAt = time.Now()
	return s.sessions.UpdateSession(ctx, session)
}

func (s *Service) enforceSessionCap(ctx context.Context, userID string) error {
	live, err := s.GetUserSessions(ctx, userID)
	if err != nil {
		return err
	}
	if len(live) <= s.cfg.MaxSessionsPerUser {
		return nil
	}

	// GetUserSessions sorts most recent first, so the surplus sits at
	// the tail.
	for _, session := range live[s.cfg.MaxSessionsPerUser:] {
		slog.Info("revoking surplus session", slog.String("userID", userID), slog.String("sessionID", session.ID))
		if err := s.RevokeSession(ctx, session.ID); err != nil {
			return err
		}
	}
	return nil
}
