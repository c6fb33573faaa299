// Package otp implements one-time code issuance and verification on top
// of a store.OtpStore. Codes are fixed-length numeric, hashed before
// storage; issuance is throttled by a per-key cooldown and verification
// by an attempt cap.
package otp

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
	umUtils "github.com/egov-portal/portal-backend/pkg/user-management/utils"
)

const (
	DEFAULT_CODE_LENGTH  = 6
	DEFAULT_TTL          = 5 * time.Minute
	DEFAULT_COOLDOWN     = 60 * time.Second
	DEFAULT_MAX_ATTEMPTS = 3

	// how long a consumed record stays around before deferred deletion
	DEFAULT_USED_RETENTION = 30 * time.Second
)

type Config struct {
	CodeLength    int
	TTL           time.Duration
	Cooldown      time.Duration
	MaxAttempts   int
	UsedRetention time.Duration
}

func (c Config) withDefaults() Config {
	if c.CodeLength == 0 {
		c.CodeLength = DEFAULT_CODE_LENGTH
	}
	if c.TTL == 0 {
		c.TTL = DEFAULT_TTL
	}
	if c.Cooldown == 0 {
		c.Cooldown = DEFAULT_COOLDOWN
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}
	if c.UsedRetention == 0 {
		c.UsedRetention = DEFAULT_USED_RETENTION
	}
	return c
}

type Service struct {
	otps store.OtpStore
	cfg  Config
}

func NewService(otps store.OtpStore, cfg Config) *Service {
	return &Service{
		otps: otps,
		cfg:  cfg.withDefaults(),
	}
}

// Create issues a new code for the user+channel+purpose slot and returns
// the plaintext for out-of-band delivery. A request within the cooldown
// window of the previous one fails with OTP_COOLDOWN and the remaining
// wait seconds.
func (s *Service) Create(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) (string, time.Time, error) {
	existing, err := s.otps.FindOTP(ctx, userID, channel, purpose)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", time.Time{}, err
	}
	if err == nil && !existing.IsUsed() {
		elapsed := time.Since(existing.CreatedAt)
		if elapsed < s.cfg.Cooldown {
			remaining := int(math.Ceil((s.cfg.Cooldown - elapsed).Seconds()))
			return "", time.Time{}, apierrors.New(apierrors.KindOTPCooldown, "wait before requesting a new code").
				WithDetail("retryAfter", remaining)
		}
	}

	code, err := umUtils.GenerateOTPCode(s.cfg.CodeLength)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	record := userTypes.OTP{
		UserID:    userID,
		Channel:   channel,
		Purpose:   purpose,
		CodeHash:  umUtils.HashOTPCode(code),
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.otps.CreateOTP(ctx, record); err != nil {
		return "", time.Time{}, err
	}
	return code, record.ExpiresAt, nil
}

// Verify checks a submitted code against the stored record. On success
// the record is marked used and scheduled for deferred deletion; every
// failure mode maps to a distinct error kind.
func (s *Service) Verify(ctx context.Context, userID string, code string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) (userTypes.OTP, error) {
	record, err := s.otps.FindOTP(ctx, userID, channel, purpose)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return userTypes.OTP{}, apierrors.New(apierrors.KindOTPNotFound, "no code requested")
		}
		return userTypes.OTP{}, err
	}

	if record.IsExpired() {
		if err := s.otps.DeleteOTP(ctx, userID, channel, purpose); err != nil {
			slog.Error("failed to delete expired OTP", slog.String("error", err.Error()))
		}
		return userTypes.OTP{}, apierrors.New(apierrors.KindOTPExpired, "code expired")
	}

	if record.IsUsed() {
		return userTypes.OTP{}, apierrors.New(apierrors.KindOTPAlreadyUsed, "code already used")
	}

	if record.Attempts >= s.cfg.MaxAttempts {
		if err := s.otps.DeleteOTP(ctx, userID, channel, purpose); err != nil {
			slog.Error("failed to delete exhausted OTP", slog.String("error", err.Error()))
		}
		return userTypes.OTP{}, apierrors.New(apierrors.KindOTPTooManyAttempts, "too many failed attempts")
	}

	if !umUtils.CompareOTPCode(code, record.CodeHash) {
		record.Attempts++
		if err := s.otps.UpdateOTP(ctx, record); err != nil {
			slog.Error("failed to update OTP attempt counter", slog.String("error", err.Error()))
		}
		remaining := s.cfg.MaxAttempts - record.Attempts
		return userTypes.OTP{}, apierrors.New(apierrors.KindOTPInvalidCode, "invalid code").
			WithDetail("remainingAttempts", remaining)
	}

	record.UsedAt = time.Now()
	if err := s.otps.UpdateOTP(ctx, record); err != nil {
		return userTypes.OTP{}, err
	}
	s.scheduleDeletion(record)
	return record, nil
}

// InvalidateUserOTPs removes all pending codes of a user, used on
// logout-everywhere and password reset.
func (s *Service) InvalidateUserOTPs(ctx context.Context, userID string) error {
	return s.otps.DeleteOTPsForUser(ctx, userID)
}

func (s *Service) scheduleDeletion(record userTypes.OTP) {
	time.AfterFunc(s.cfg.UsedRetention, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.otps.DeleteOTP(ctx, record.UserID, record.Channel, record.Purpose); err != nil {
			slog.Error("failed to delete consumed OTP", slog.String("error", err.Error()))
		}
	})
}
