package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	"github.com/egov-portal/portal-backend/pkg/store/memstore"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

const testSignKey = "session-service-test-key"

func newTestService(cfg Config) *Service {
	if cfg.TokenSignKey == "" {
		cfg.TokenSignKey = testSignKey
	}
	return NewService(memstore.New(), cfg)
}

func testUser() userTypes.User {
	return userTypes.User{
		ID:    "u1",
		Email: "citizen@example.org",
		Role:  userTypes.ROLE_CITIZEN,
	}
}

func meta(device string) userTypes.SessionMetadata {
	return userTypes.SessionMetadata{DeviceName: device, IP: "203.0.113.7", UserAgent: "test-agent"}
}

func TestCreateAndValidateSession(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()

	session, err := s.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.ID == "" || session.AccessToken == "" {
		t.Fatal("session missing id or access token")
	}
	if len(session.RefreshToken) != 128 {
		t.Errorf("refresh token length = %d, want 128", len(session.RefreshToken))
	}

	claims, err := s.ValidateSession(session.AccessToken)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Subject = %q, want u1", claims.Subject)
	}
	if claims.SessionID != session.ID {
		t.Errorf("SessionID = %q, want %q", claims.SessionID, session.ID)
	}
	if claims.TwoFactorVerified {
		t.Error("TwoFactorVerified = true for plain login")
	}
}

func TestValidateSessionErrorKinds(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()

	session, err := s.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	// token signed with another secret
	other := newTestService(Config{TokenSignKey: "a-different-secret"})
	otherSession, err := other.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if _, err := s.ValidateSession(otherSession.AccessToken); !apierrors.IsKind(err, apierrors.KindInvalidToken) {
		t.Errorf("wrong-secret token error = %v, want INVALID_TOKEN", err)
	}

	// expired token
	expired := newTestService(Config{AccessTokenTTL: -time.Minute})
	expiredSession, err := expired.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if _, err := expired.ValidateSession(expiredSession.AccessToken); !apierrors.IsKind(err, apierrors.KindTokenExpired) {
		t.Errorf("expired token error = %v, want TOKEN_EXPIRED", err)
	}

	// the healthy session still validates
	if _, err := s.ValidateSession(session.AccessToken); err != nil {
		t.Errorf("healthy session failed validation: %v", err)
	}
}

func TestRefreshSession(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()

	session, err := s.CreateSession(ctx, testUser(), meta("laptop"), true)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	refreshed, err := s.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshSession returned error: %v", err)
	}
	if refreshed.ID != session.ID {
		t.Errorf("refreshed session id = %q, want %q", refreshed.ID, session.ID)
	}
	if refreshed.RefreshToken != session.RefreshToken {
		t.Error("refresh rotated the refresh token, want it unchanged")
	}
	if !refreshed.RefreshExpiresAt.Equal(session.RefreshExpiresAt) {
		t.Error("refresh extended the refresh window")
	}

	claims, err := s.ValidateSession(refreshed.AccessToken)
	if err != nil {
		t.Fatalf("ValidateSession on refreshed token returned error: %v", err)
	}
	if claims.SessionID != session.ID {
		t.Errorf("refreshed claims session id = %q, want %q", claims.SessionID, session.ID)
	}
	if !claims.TwoFactorVerified {
		t.Error("refresh dropped the two-factor flag")
	}
}

func TestRefreshFailureModes(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()

	if _, err := s.RefreshSession(ctx, "unknown-token"); !apierrors.IsKind(err, apierrors.KindInvalidRefreshToken) {
		t.Errorf("unknown token error = %v, want INVALID_REFRESH_TOKEN", err)
	}

	// revoked session
	session, err := s.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if err := s.RevokeSession(ctx, session.ID); err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	// revocation drops the index, so the lookup itself fails
	if _, err := s.RefreshSession(ctx, session.RefreshToken); !apierrors.IsKind(err, apierrors.KindInvalidRefreshToken) {
		t.Errorf("revoked session refresh error = %v, want INVALID_REFRESH_TOKEN", err)
	}
}

func TestRefreshAfterRefreshExpiry(t *testing.T) {
	s := newTestService(Config{RefreshTokenTTL: 20 * time.Millisecond})
	ctx := context.Background()

	session, err := s.CreateSession(ctx, testUser(), meta("laptop"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := s.RefreshSession(ctx, session.RefreshToken); !apierrors.IsKind(err, apierrors.KindRefreshTokenExpired) {
		t.Fatalf("error = %v, want REFRESH_TOKEN_EXPIRED", err)
	}

	// both the record and the index are gone now
	if _, err := s.RefreshSession(ctx, session.RefreshToken); !apierrors.IsKind(err, apierrors.KindInvalidRefreshToken) {
		t.Errorf("second refresh error = %v, want INVALID_REFRESH_TOKEN", err)
	}
}

func TestSessionCapRevokesLeastRecentlyActive(t *testing.T) {
	s := newTestService(Config{MaxSessionsPerUser: 5})
	ctx := context.Background()
	user := testUser()

	sessions := make([]userTypes.Session, 0, 6)
	for i := 0; i < 5; i++ {
		session, err := s.CreateSession(ctx, user, meta(fmt.Sprintf("device-%d", i)), false)
		if err != nil {
			t.Fatalf("CreateSession %d returned error: %v", i, err)
		}
		sessions = append(sessions, session)
		time.Sleep(2 * time.Millisecond) // distinct activity timestamps
	}

	// keep the first session the least recently active, touch the rest
	for _, session := range sessions[1:] {
		if err := s.UpdateSessionActivity(ctx, session.ID); err != nil {
			t.Fatalf("UpdateSessionActivity returned error: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	sixth, err := s.CreateSession(ctx, user, meta("device-5"), false)
	if err != nil {
		t.Fatalf("sixth CreateSession returned error: %v", err)
	}

	live, err := s.GetUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserSessions returned error: %v", err)
	}
	if len(live) != 5 {
		t.Fatalf("live session count = %d, want 5", len(live))
	}
	for _, session := range live {
		if session.ID == sessions[0].ID {
			t.Error("least recently active session survived the cap")
		}
	}
	if live[0].ID != sixth.ID {
		t.Errorf("most recent session = %q, want the sixth %q", live[0].ID, sixth.ID)
	}
}

func TestRevokeAllUserSessionsExceptCurrent(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()
	user := testUser()

	var current userTypes.Session
	for i := 0; i < 3; i++ {
		session, err := s.CreateSession(ctx, user, meta(fmt.Sprintf("device-%d", i)), false)
		if err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}
		current = session
	}

	revoked, err := s.RevokeAllUserSessions(ctx, user.ID, current.ID)
	if err != nil {
		t.Fatalf("RevokeAllUserSessions returned error: %v", err)
	}
	if revoked != 2 {
		t.Errorf("revoked = %d, want 2", revoked)
	}

	live, err := s.GetUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserSessions returned error: %v", err)
	}
	if len(live) != 1 || live[0].ID != current.ID {
		t.Errorf("surviving sessions = %v, want only the current one", live)
	}
}

func TestUpdateSessionActivityOrdersListing(t *testing.T) {
	s := newTestService(Config{})
	ctx := context.Background()
	user := testUser()

	first, err := s.CreateSession(ctx, user, meta("first"), false)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.CreateSession(ctx, user, meta("second"), false); err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if err := s.UpdateSessionActivity(ctx, first.ID); err != nil {
		t.Fatalf("UpdateSessionActivity returned error: %v", err)
	}

	live, err := s.GetUserSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserSessions returned error: %v", err)
	}
	if live[0].ID != first.ID {
		t.Errorf("most recently active session = %q, want %q", live[0].ID, first.ID)
	}
}
