package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates every failure the auth layer can report. Keeping this
// closed lets service code switch exhaustively, while Code() preserves the
// string contract the frontend clients rely on.
type Kind int

const (
	KindUnknown Kind = iota

	// token / middleware errors
	KindNoToken
	KindInvalidToken
	KindTokenExpired
	KindForbidden
	KindTwoFactorRequired
	KindRateLimited

	// OTP errors
	KindOTPNotFound
	KindOTPExpired
	KindOTPAlreadyUsed
	KindOTPTooManyAttempts
	KindOTPCooldown
	KindOTPInvalidCode

	// session / refresh errors
	KindInvalidRefreshToken
	KindSessionNotFound
	KindSessionRevoked
	KindRefreshTokenExpired

	// request errors
	KindInvalidCredentials
	KindValidation
	KindInternal
)

var kindCodes = map[Kind]string{
	KindNoToken:            "NO_TOKEN",
	KindInvalidToken:       "INVALID_TOKEN",
	KindTokenExpired:       "TOKEN_EXPIRED",
	KindForbidden:          "FORBIDDEN",
	KindTwoFactorRequired:  "2FA_REQUIRED",
	KindRateLimited:        "RATE_LIMITED",
	KindOTPNotFound:        "OTP_NOT_FOUND",
	KindOTPExpired:         "OTP_EXPIRED",
	KindOTPAlreadyUsed:     "OTP_ALREADY_USED",
	KindOTPTooManyAttempts: "OTP_TOO_MANY_ATTEMPTS",
	KindOTPCooldown:        "OTP_COOLDOWN",
	KindOTPInvalidCode:     "OTP_INVALID_CODE",

	KindInvalidRefreshToken: "INVALID_REFRESH_TOKEN",
	KindSessionNotFound:     "SESSION_NOT_FOUND",
	KindSessionRevoked:      "SESSION_REVOKED",
	KindRefreshTokenExpired: "REFRESH_TOKEN_EXPIRED",

	KindInvalidCredentials: "INVALID_CREDENTIALS",
	KindValidation:         "VALIDATION_ERROR",
	KindInternal:           "INTERNAL",
}

var kindStatus = map[Kind]int{
	KindNoToken:            http.StatusUnauthorized,
	KindInvalidToken:       http.StatusUnauthorized,
	KindTokenExpired:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindTwoFactorRequired:  http.StatusForbidden,
	KindRateLimited:        http.StatusTooManyRequests,
	KindOTPNotFound:        http.StatusBadRequest,
	KindOTPExpired:         http.StatusBadRequest,
	KindOTPAlreadyUsed:     http.StatusBadRequest,
	KindOTPTooManyAttempts: http.StatusBadRequest,
	KindOTPCooldown:        http.StatusTooManyRequests,
	KindOTPInvalidCode:     http.StatusBadRequest,

	KindInvalidRefreshToken: http.StatusUnauthorized,
	KindSessionNotFound:     http.StatusUnauthorized,
	KindSessionRevoked:      http.StatusUnauthorized,
	KindRefreshTokenExpired: http.StatusUnauthorized,

	KindInvalidCredentials: http.StatusUnauthorized,
	KindValidation:         http.StatusBadRequest,
	KindInternal:           http.StatusInternalServerError,
}

// Error is the structured error carried through the auth layer. Details
// holds machine-readable extras that end up in the JSON response body
// (e.g. remaining cooldown seconds, remaining OTP attempts).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code()
}

// Code returns the boundary string code for the error kind.
func (e *Error) Code() string {
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return kindCodes[KindInternal]
}

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New creates an error of the given kind with a human readable message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a key/value pair to the error's detail map.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// As extracts an *Error from err, wrapping unknown errors as INTERNAL so
// handlers can always respond with a structured body.
func As(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindInternal, Message: "internal server error"}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}
