package apihandlers

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	emailsending "github.com/egov-portal/portal-backend/pkg/messaging/email-sending"
	"github.com/egov-portal/portal-backend/pkg/messaging/sms"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

const otpDeliveryTimeout = 10 * time.Second

// randomWait slows down responses on authentication failures. Stubbed
// out in tests.
var randomWait = func(minTimeSec int, maxTimeSec int) {
	time.Sleep(time.Duration(rand.Intn(maxTimeSec-minTimeSec)+minTimeSec) * time.Second)
}

func sessionMetadataFromRequest(c *gin.Context, deviceName string) userTypes.SessionMetadata {
	if deviceName == "" {
		deviceName = "unknown device"
	}
	return userTypes.SessionMetadata{
		DeviceName: deviceName,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
}

// otpChannelForUser prefers SMS when the account has a phone number.
func otpChannelForUser(user userTypes.User) userTypes.OTPChannel {
	if user.Phone != "" {
		return userTypes.SMSOTP
	}
	return userTypes.EmailOTP
}

// deliverOTP hands the code to the delivery channel, bounded by a
// timeout so a hung gateway cannot stall the caller.
func deliverOTP(user userTypes.User, channel userTypes.OTPChannel, code string, validFor time.Duration) {
	done := make(chan error, 1)
	go func() {
		switch channel {
		case userTypes.SMSOTP:
			done <- sms.SendOTPSMS(user.Phone, code)
		default:
			done <- emailsending.SendOTPEmail(user.Email, code, validFor)
		}
	}()

	select {
	case err := <-done:
		if err != nil {
			slog.Error("failed to deliver OTP", slog.String("channel", string(channel)), slog.String("error", err.Error()))
		}
	case <-time.After(otpDeliveryTimeout):
		slog.Error("OTP delivery timed out", slog.String("channel", string(channel)))
	}
}

// respondWithError writes the structured error body for an error from
// the service layer.
func respondWithError(c *gin.Context, err error) {
	apiErr := apierrors.As(err)
	body := gin.H{"error": apiErr.Error(), "code": apiErr.Code()}
	for k, v := range apiErr.Details {
		body[k] = v
	}
	c.JSON(apiErr.Status(), body)
}

func (h *HttpEndpoints) resetAuthLimiter(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := h.authLimiter.Reset(ctx, key); err != nil {
			slog.Error("failed to reset auth limiter", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}
