package memstore

import (
	"context"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

func (s *MemStore) CreateOTP(ctx context.Context, otp userTypes.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.otps[otp.Key()] = otp
	return nil
}

func (s *MemStore) FindOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) (userTypes.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	otp, ok := s.otps[userTypes.OTPKey(userID, channel, purpose)]
	if !ok {
		return userTypes.OTP{}, store.ErrNotFound
	}
	return otp, nil
}

func (s *MemStore) UpdateOTP(ctx context.Context, otp userTypes.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otp.Key()
	if _, ok := s.otps[key]; !ok {
		return store.ErrNotFound
	}
	s.otps[key] = otp
	return nil
}

func (s *MemStore) DeleteOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.otps, userTypes.OTPKey(userID, channel, purpose))
	return nil
}

func (s *MemStore) DeleteOTPsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, otp := range s.otps {
		if otp.UserID == userID {
			delete(s.otps, key)
		}
	}
	return nil
}
