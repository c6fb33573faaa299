package utils

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	sessionIDByteLength    = 16
	refreshTokenByteLength = 64
)

// GenerateSessionID creates a unique session ID using crypto/rand
func GenerateSessionID() (string, error) {
	bytes := make([]byte, sessionIDByteLength) // 32 character hex string
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateRefreshToken creates the opaque refresh token string (64 random
// bytes, hex encoded).
func GenerateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
