package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/utils"
)

// Authorize allows the request through only when the authenticated user
// carries one of the given roles. It must run after Authenticate.
func Authorize(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuthContext(c)
		if !ok {
			slog.Warn("authorize called without an authenticated user")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no Authorization token found", "code": "NO_TOKEN"})
			c.Abort()
			return
		}

		if !utils.ContainsString(allowedRoles, authCtx.Claims.Role) {
			slog.Warn("user does not have required role",
				slog.String("userID", authCtx.Claims.Subject),
				slog.String("role", authCtx.Claims.Role),
			)
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions", "code": "FORBIDDEN"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Require2FA blocks access to sensitive endpoints until the session was
// established through an OTP-verified login.
func Require2FA() gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := GetAuthContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no Authorization token found", "code": "NO_TOKEN"})
			c.Abort()
			return
		}

		if !authCtx.Claims.TwoFactorVerified {
			slog.Warn("two factor verification required", slog.String("userID", authCtx.Claims.Subject))
			c.JSON(http.StatusForbidden, gin.H{"error": "two-factor verification required", "code": "2FA_REQUIRED"})
			c.Abort()
			return
		}
		c.Next()
	}
}
