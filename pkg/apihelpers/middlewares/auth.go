package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	jwthandling "github.com/egov-portal/portal-backend/pkg/jwt-handling"
	"github.com/egov-portal/portal-backend/pkg/session"
)

const authContextKey = "authContext"

// AuthContext carries the validated identity of a request. It is the
// only value the middlewares attach to the gin context; handlers read it
// back through GetAuthContext instead of poking at loose keys.
type AuthContext struct {
	Claims *jwthandling.PortalUserClaims
	Token  string
}

// GetAuthContext returns the identity attached by Authenticate or
// OptionalAuth, if any.
func GetAuthContext(c *gin.Context) (*AuthContext, bool) {
	value, ok := c.Get(authContextKey)
	if !ok {
		return nil, false
	}
	authCtx, ok := value.(*AuthContext)
	return authCtx, ok
}

// MustGetAuthContext is for handlers behind Authenticate, where a
// missing context is a programming error.
func MustGetAuthContext(c *gin.Context) *AuthContext {
	return c.MustGet(authContextKey).(*AuthContext)
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("no Authorization header found")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("Authorization header is not a bearer token")
	}
	return parts[1], nil
}

// Authenticate requires a valid bearer token. On success the identity is
// attached to the context and the session's activity timestamp is
// bumped.
func Authenticate(sessionService *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			slog.Warn("no Authorization token found")
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "NO_TOKEN"})
			c.Abort()
			return
		}

		claims, err := sessionService.ValidateSession(token)
		if err != nil {
			apiErr := apierrors.As(err)
			slog.Warn("token validation failed", slog.String("code", apiErr.Code()))
			c.JSON(apiErr.Status(), gin.H{"error": apiErr.Error(), "code": apiErr.Code()})
			c.Abort()
			return
		}

		c.Set(authContextKey, &AuthContext{Claims: claims, Token: token})

		if claims.SessionID != "" {
			if err := sessionService.UpdateSessionActivity(c.Request.Context(), claims.SessionID); err != nil {
				slog.Error("failed to update session activity", slog.String("sessionID", claims.SessionID), slog.String("error", err.Error()))
			}
		}
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present but
// never blocks the request, for endpoints with optional personalization.
func OptionalAuth(sessionService *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.Next()
			return
		}

		claims, err := sessionService.ValidateSession(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(authContextKey, &AuthContext{Claims: claims, Token: token})
		c.Next()
	}
}
