package jwthandling

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token is expired")
	ErrInvalidToken = errors.New("token is invalid")
)

// Information a token enocodes
type PortalUserClaims struct {
	Email             string `json:"email,omitempty"`
	Role              string `json:"role,omitempty"`
	SessionID         string `json:"session_id,omitempty"`
	TwoFactorVerified bool   `json:"two_factor_verified,omitempty"`
	jwt.RegisteredClaims
}

func GenerateNewPortalUserToken(
	expiresIn time.Duration,
	id string,
	email string,
	role string,
	sessionID string,
	twoFactorVerified bool,
	secretKey string,
) (tokenString string, err error) {
	claims := PortalUserClaims{
		email,
		role,
		sessionID,
		twoFactorVerified,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

// ValidatePortalUserToken verifies signature and expiry. The two failure
// modes are reported as distinct sentinel errors so callers can map them
// to TOKEN_EXPIRED vs INVALID_TOKEN.
func ValidatePortalUserToken(tokenString string, secretKey string) (*PortalUserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PortalUserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*PortalUserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParsePortalUserTokenIgnoringExpiration checks the signature but not the
// expiry, used by the refresh flow to recover the claims of the expiring
// access token.
func ParsePortalUserTokenIgnoringExpiration(tokenString string, secretKey string) (*PortalUserClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &PortalUserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*PortalUserClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
