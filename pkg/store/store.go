package store

import (
	"context"
	"errors"
	"time"

	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// OtpStore persists OTP records keyed by user+channel+purpose. At most
// one record exists per key; CreateOTP replaces a prior record.
type OtpStore interface {
	CreateOTP(ctx context.Context, otp userTypes.OTP) error
	FindOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) (userTypes.OTP, error)
	UpdateOTP(ctx context.Context, otp userTypes.OTP) error
	DeleteOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) error
	DeleteOTPsForUser(ctx context.Context, userID string) error
}

// SessionStore persists session records and the refresh-token→session
// index used by the refresh flow.
type SessionStore interface {
	SaveSession(ctx context.Context, session userTypes.Session) error
	GetSession(ctx context.Context, sessionID string) (userTypes.Session, error)
	UpdateSession(ctx context.Context, session userTypes.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	GetSessionsForUser(ctx context.Context, userID string) ([]userTypes.Session, error)

	IndexRefreshToken(ctx context.Context, refreshToken string, sessionID string) error
	LookupRefreshToken(ctx context.Context, refreshToken string) (string, error)
	RemoveRefreshToken(ctx context.Context, refreshToken string) error
}

// RateLimitWindow is the per-client attempt window. The window starts at
// the first attempt and is discarded once the window size has elapsed.
type RateLimitWindow struct {
	FirstAttempt time.Time `bson:"firstAttempt" json:"firstAttempt"`
	Attempts     int       `bson:"attempts" json:"attempts"`
}

// RateLimitStore tracks attempt counters per client key.
type RateLimitStore interface {
	// IncrementAttempt records one attempt. A new window is opened when
	// none exists or the previous one has elapsed.
	IncrementAttempt(ctx context.Context, key string, window time.Duration) (RateLimitWindow, error)
	GetWindow(ctx context.Context, key string) (RateLimitWindow, error)
	ResetWindow(ctx context.Context, key string) error
	// SweepExpired drops windows whose first attempt is older than the
	// window size, returning the number of removed entries.
	SweepExpired(ctx context.Context, window time.Duration) (int, error)
}

// UserStore persists portal user accounts.
type UserStore interface {
	AddUser(ctx context.Context, user userTypes.User) (string, error)
	GetUser(ctx context.Context, userID string) (userTypes.User, error)
	GetUserByEmail(ctx context.Context, email string) (userTypes.User, error)
	ReplaceUser(ctx context.Context, user userTypes.User) error
	DeleteUser(ctx context.Context, userID string) error
}
