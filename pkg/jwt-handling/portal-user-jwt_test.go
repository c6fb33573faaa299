package jwthandling

import (
	"errors"
	"testing"
	"time"
)

const testSignKey = "test-sign-key-for-unit-tests"

func TestGenerateAndValidateToken(t *testing.T) {
	tokenString, err := GenerateNewPortalUserToken(
		time.Minute,
		"user-1",
		"citizen@example.org",
		"citizen",
		"session-1",
		false,
		testSignKey,
	)
	if err != nil {
		t.Fatalf("GenerateNewPortalUserToken returned error: %v", err)
	}

	claims, err := ValidatePortalUserToken(tokenString, testSignKey)
	if err != nil {
		t.Fatalf("ValidatePortalUserToken returned error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.Email != "citizen@example.org" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "citizen" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("SessionID = %q", claims.SessionID)
	}
	if claims.TwoFactorVerified {
		t.Error("TwoFactorVerified = true, want false")
	}
}

func TestValidateWithWrongKey(t *testing.T) {
	tokenString, err := GenerateNewPortalUserToken(time.Minute, "user-1", "c@example.org", "citizen", "s-1", false, testSignKey)
	if err != nil {
		t.Fatalf("GenerateNewPortalUserToken returned error: %v", err)
	}

	_, err = ValidatePortalUserToken(tokenString, "a-different-sign-key")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	tokenString, err := GenerateNewPortalUserToken(-time.Minute, "user-1", "c@example.org", "citizen", "s-1", false, testSignKey)
	if err != nil {
		t.Fatalf("GenerateNewPortalUserToken returned error: %v", err)
	}

	_, err = ValidatePortalUserToken(tokenString, testSignKey)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := ValidatePortalUserToken("not.a.jwt", testSignKey)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}
