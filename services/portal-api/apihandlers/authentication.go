package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/apierrors"
	mw "github.com/egov-portal/portal-backend/pkg/apihelpers/middlewares"
	"github.com/egov-portal/portal-backend/pkg/store"
	"github.com/egov-portal/portal-backend/pkg/user-management/pwhash"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
	umUtils "github.com/egov-portal/portal-backend/pkg/user-management/utils"
)

const (
	loginLimiterKeyPrefix     = "login"
	verifyOTPLimiterKeyPrefix = "verify-otp"
)

func (h *HttpEndpoints) AddPortalAuthAPI(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", mw.RequirePayload(), h.register)
		authGroup.POST("/login", mw.AuthRateLimiter(h.authLimiter, loginLimiterKeyPrefix), mw.RequirePayload(), h.loginWithEmail)
		authGroup.POST("/verify-otp", mw.AuthRateLimiter(h.authLimiter, verifyOTPLimiterKeyPrefix), mw.RequirePayload(), h.verifyOTPLogin)

		authGroup.POST("/refresh", mw.RequirePayload(), h.refreshSession)
		authGroup.POST("/logout", mw.Authenticate(h.sessionService), h.logout)
		authGroup.POST("/logout-all", mw.Authenticate(h.sessionService), h.logoutAll)
		authGroup.GET("/sessions", mw.Authenticate(h.sessionService), h.getSessions)
		authGroup.GET("/token/validate", mw.Authenticate(h.sessionService), h.validateToken)
	}

	otpGroup := authGroup.Group("/otp")
	otpGroup.Use(mw.Authenticate(h.sessionService))
	{
		otpGroup.POST("/request", h.requestOTP)
		otpGroup.POST("/verify", mw.RequirePayload(), h.verifyAccountOTP)
	}
}

type RegisterReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	DeviceName string `json:"deviceName"`
}

func (h *HttpEndpoints) register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	req.Email = umUtils.SanitizeEmail(req.Email)
	if !umUtils.CheckEmailFormat(req.Email) {
		slog.Error("invalid email format", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid email format"))
		return
	}
	if !umUtils.CheckPasswordFormat(req.Password) {
		slog.Error("invalid password format")
		respondWithError(c, apierrors.New(apierrors.KindValidation, "password too weak"))
		return
	}
	if req.Phone != "" {
		req.Phone = umUtils.SanitizePhoneNumber(req.Phone)
	}

	password, err := pwhash.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
		return
	}

	user := userTypes.User{
		Email:     req.Email,
		Password:  password,
		Role:      userTypes.ROLE_CITIZEN,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	userID, err := h.userStore.AddUser(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			slog.Warn("registration attempt with existing email", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
			respondWithError(c, apierrors.New(apierrors.KindValidation, "email already registered"))
			return
		}
		slog.Error("failed to create user", slog.String("error", err.Error()))
		respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
		return
	}
	user.ID = userID

	// send email verification code, delivery must not block the response
	code, expiresAt, err := h.otpService.Create(c.Request.Context(), userID, userTypes.EmailOTP, userTypes.OTP_PURPOSE_VERIFICATION)
	if err != nil {
		slog.Error("failed to create verification OTP", slog.String("error", err.Error()))
	} else {
		go deliverOTP(user, userTypes.EmailOTP, code, time.Until(expiresAt))
	}

	session, err := h.sessionService.CreateSession(
		c.Request.Context(),
		user,
		sessionMetadataFromRequest(c, req.DeviceName),
		false,
	)
	if err != nil {
		slog.Error("failed to create session", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	h.saveLoginTimestamp(c, user)

	slog.Info("new user registered", slog.String("userID", userID))
	c.JSON(http.StatusCreated, gin.H{
		"user":         user,
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.AccessExpiresAt.Unix(),
	})
}

type LoginWithEmailReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"deviceName"`
}

func (h *HttpEndpoints) loginWithEmail(c *gin.Context) {
	var req LoginWithEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	if req.Email == "" || req.Password == "" {
		slog.Error("missing required fields")
		respondWithError(c, apierrors.New(apierrors.KindValidation, "missing required fields"))
		return
	}

	req.Email = umUtils.SanitizeEmail(req.Email)

	user, err := h.userStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		slog.Warn("login attempt with wrong email address", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
		randomWait(5, 10)
		respondWithError(c, apierrors.New(apierrors.KindInvalidCredentials, "invalid email or password"))
		return
	}

	match, err := pwhash.ComparePasswordWithHash(user.Password, req.Password)
	if err != nil || !match {
		slog.Warn("login attempt with wrong password", slog.String("userID", user.ID))
		randomWait(5, 10)
		respondWithError(c, apierrors.New(apierrors.KindInvalidCredentials, "invalid email or password"))
		return
	}

	if user.TwoFactorEnabled {
		channel := otpChannelForUser(user)
		code, expiresAt, err := h.otpService.Create(c.Request.Context(), user.ID, channel, userTypes.OTP_PURPOSE_LOGIN)
		if err != nil {
			if apierrors.IsKind(err, apierrors.KindOTPCooldown) {
				respondWithError(c, err)
				return
			}
			slog.Error("failed to create login OTP", slog.String("error", err.Error()))
			respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
			return
		}
		go deliverOTP(user, channel, code, time.Until(expiresAt))

		resp := gin.H{
			"otpRequired": true,
			"channel":     channel,
			"expiresAt":   expiresAt.Unix(),
		}
		if h.otpCodeInResponse {
			resp["code"] = code
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	session, err := h.sessionService.CreateSession(
		c.Request.Context(),
		user,
		sessionMetadataFromRequest(c, req.DeviceName),
		false,
	)
	if err != nil {
		slog.Error("failed to create session", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	h.resetAuthLimiter(c.Request.Context(), loginLimiterKeyPrefix+":"+c.ClientIP())
	h.saveLoginTimestamp(c, user)

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.AccessExpiresAt.Unix(),
	})
}

type VerifyOTPLoginReq struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	DeviceName string `json:"deviceName"`
}

// verifyOTPLogin completes a two-factor login. The resulting session
// claims carry the two-factor-verified flag.
func (h *HttpEndpoints) verifyOTPLogin(c *gin.Context) {
	var req VerifyOTPLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	req.Email = umUtils.SanitizeEmail(req.Email)

	user, err := h.userStore.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		slog.Warn("otp login attempt with wrong email address", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
		randomWait(5, 10)
		respondWithError(c, apierrors.New(apierrors.KindInvalidCredentials, "invalid email or code"))
		return
	}

	code := strings.TrimSpace(req.Code)
	_, err = h.otpService.Verify(c.Request.Context(), user.ID, code, otpChannelForUser(user), userTypes.OTP_PURPOSE_LOGIN)
	if err != nil {
		slog.Warn("failed to verify login OTP", slog.String("userID", user.ID), slog.String("error", err.Error()))
		randomWait(5, 10)
		respondWithError(c, err)
		return
	}

	session, err := h.sessionService.CreateSession(
		c.Request.Context(),
		user,
		sessionMetadataFromRequest(c, req.DeviceName),
		true,
	)
	if err != nil {
		slog.Error("failed to create session", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	h.resetAuthLimiter(
		c.Request.Context(),
		loginLimiterKeyPrefix+":"+c.ClientIP(),
		verifyOTPLimiterKeyPrefix+":"+c.ClientIP(),
	)
	h.saveLoginTimestamp(c, user)

	c.JSON(http.StatusOK, gin.H{
		"user":              user,
		"accessToken":       session.AccessToken,
		"refreshToken":      session.RefreshToken,
		"expiresAt":         session.AccessExpiresAt.Unix(),
		"twoFactorVerified": true,
	})
}

// requestOTP issues a fresh code for the authenticated user, by default
// for account verification. Login codes are issued by the login route.
func (h *HttpEndpoints) requestOTP(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	user, err := h.userStore.GetUser(c.Request.Context(), authCtx.Claims.Subject)
	if err != nil {
		slog.Warn("user not found", slog.String("userID", authCtx.Claims.Subject))
		respondWithError(c, apierrors.New(apierrors.KindInvalidToken, "invalid token"))
		return
	}

	channel := userTypes.OTPChannel(c.DefaultQuery("channel", string(userTypes.EmailOTP)))
	if channel != userTypes.EmailOTP && channel != userTypes.SMSOTP {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "invalid OTP channel"))
		return
	}
	if channel == userTypes.SMSOTP && user.Phone == "" {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "no phone number on record"))
		return
	}

	code, expiresAt, err := h.otpService.Create(c.Request.Context(), user.ID, channel, userTypes.OTP_PURPOSE_VERIFICATION)
	if err != nil {
		respondWithError(c, err)
		return
	}
	go deliverOTP(user, channel, code, time.Until(expiresAt))

	resp := gin.H{
		"message":   "OTP sent",
		"expiresAt": expiresAt.Unix(),
	}
	if h.otpCodeInResponse {
		resp["code"] = code
	}
	c.JSON(http.StatusOK, resp)
}

type VerifyAccountOTPReq struct {
	Code    string `json:"code"`
	Channel string `json:"channel"`
}

// verifyAccountOTP consumes a verification code and marks the email
// address confirmed.
func (h *HttpEndpoints) verifyAccountOTP(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	var req VerifyAccountOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}

	channel := userTypes.OTPChannel(req.Channel)
	if channel == "" {
		channel = userTypes.EmailOTP
	}

	code := strings.TrimSpace(req.Code)
	otp, err := h.otpService.Verify(c.Request.Context(), authCtx.Claims.Subject, code, channel, userTypes.OTP_PURPOSE_VERIFICATION)
	if err != nil {
		slog.Warn("failed to verify account OTP", slog.String("userID", authCtx.Claims.Subject), slog.String("error", err.Error()))
		randomWait(5, 10)
		respondWithError(c, err)
		return
	}

	user, err := h.userStore.GetUser(c.Request.Context(), authCtx.Claims.Subject)
	if err != nil {
		slog.Warn("user not found", slog.String("userID", authCtx.Claims.Subject))
		respondWithError(c, apierrors.New(apierrors.KindInvalidToken, "invalid token"))
		return
	}

	if otp.Channel == userTypes.EmailOTP && user.EmailVerifiedAt == 0 {
		user.EmailVerifiedAt = time.Now().Unix()
		if err := h.userStore.ReplaceUser(c.Request.Context(), user); err != nil {
			slog.Error("failed to update user", slog.String("error", err.Error()))
			respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
			return
		}
		slog.Info("email verified", slog.String("userID", user.ID))
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type RefreshSessionReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *HttpEndpoints) refreshSession(c *gin.Context) {
	var req RefreshSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}
	if req.RefreshToken == "" {
		respondWithError(c, apierrors.New(apierrors.KindValidation, "missing refresh token"))
		return
	}

	session, err := h.sessionService.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		slog.Warn("failed to refresh session", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": session.AccessToken,
		"expiresAt":   session.AccessExpiresAt.Unix(),
	})
}

func (h *HttpEndpoints) logout(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	if err := h.sessionService.RevokeSession(c.Request.Context(), authCtx.Claims.SessionID); err != nil {
		slog.Error("failed to revoke session", slog.String("error", err.Error()))
		respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// logoutAll revokes the user's sessions everywhere and drops pending
// OTPs. With ?keepCurrent=true the current session survives.
func (h *HttpEndpoints) logoutAll(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	exceptSessionID := ""
	if c.DefaultQuery("keepCurrent", "false") == "true" {
		exceptSessionID = authCtx.Claims.SessionID
	}

	revoked, err := h.sessionService.RevokeAllUserSessions(c.Request.Context(), authCtx.Claims.Subject, exceptSessionID)
	if err != nil {
		slog.Error("failed to revoke sessions", slog.String("error", err.Error()))
		respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
		return
	}

	if err := h.otpService.InvalidateUserOTPs(c.Request.Context(), authCtx.Claims.Subject); err != nil {
		slog.Error("failed to invalidate OTPs", slog.String("error", err.Error()))
	}

	slog.Info("user logged out everywhere", slog.String("userID", authCtx.Claims.Subject), slog.Int("revokedSessions", revoked))
	c.JSON(http.StatusOK, gin.H{"revokedSessions": revoked})
}

func (h *HttpEndpoints) getSessions(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	sessions, err := h.sessionService.GetUserSessions(c.Request.Context(), authCtx.Claims.Subject)
	if err != nil {
		slog.Error("failed to list sessions", slog.String("error", err.Error()))
		respondWithError(c, apierrors.New(apierrors.KindInternal, "internal server error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions":         sessions,
		"currentSessionID": authCtx.Claims.SessionID,
	})
}

func (h *HttpEndpoints) validateToken(c *gin.Context) {
	authCtx := mw.MustGetAuthContext(c)

	c.JSON(http.StatusOK, gin.H{
		"userID":            authCtx.Claims.Subject,
		"email":             authCtx.Claims.Email,
		"role":              authCtx.Claims.Role,
		"sessionID":         authCtx.Claims.SessionID,
		"twoFactorVerified": authCtx.Claims.TwoFactorVerified,
		"expiresAt":         authCtx.Claims.ExpiresAt.Unix(),
	})
}

// saveLoginTimestamp records the login time on the account, failure is
// logged only.
func (h *HttpEndpoints) saveLoginTimestamp(c *gin.Context, user userTypes.User) {
	user.Timestamps.LastLogin = time.Now().Unix()
	if err := h.userStore.ReplaceUser(c.Request.Context(), user); err != nil {
		slog.Error("failed to save login timestamp", slog.String("userID", user.ID), slog.String("error", err.Error()))
	}
}
