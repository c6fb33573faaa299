package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/egov-portal/portal-backend/pkg/ratelimit"
	"github.com/egov-portal/portal-backend/pkg/session"
	"github.com/egov-portal/portal-backend/pkg/store/memstore"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

const testSignKey = "middleware-test-sign-key"

func newTestSessionService(t *testing.T, accessTTL time.Duration) *session.Service {
	t.Helper()
	return session.NewService(memstore.New(), session.Config{
		TokenSignKey:   testSignKey,
		AccessTokenTTL: accessTTL,
	})
}

func createTestSession(t *testing.T, svc *session.Service, role string, twoFactor bool) userTypes.Session {
	t.Helper()
	user := userTypes.User{
		ID:    "user-1",
		Email: "citizen@example.gov",
		Role:  role,
	}
	sess, err := svc.CreateSession(context.Background(), user, userTypes.SessionMetadata{DeviceName: "test"}, twoFactor)
	if err != nil {
		t.Fatalf("unexpected error creating session: %v", err)
	}
	return sess
}

func performRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func responseCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("cannot decode response body: %v", err)
	}
	code, _ := body["code"].(string)
	return code
}

func TestAuthenticateMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestSessionService(t, time.Minute)
	sess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, false)

	router := gin.New()
	router.Use(Authenticate(svc))
	router.GET("/protected", func(c *gin.Context) {
		authCtx := MustGetAuthContext(c)
		c.JSON(http.StatusOK, gin.H{"userID": authCtx.Claims.Subject})
	})

	t.Run("missing token", func(t *testing.T) {
		w := performRequest(router, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
		if code := responseCode(t, w); code != "NO_TOKEN" {
			t.Errorf("expected NO_TOKEN, got %s", code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", sess.AccessToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := performRequest(router, "not.a.jwt")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
		if code := responseCode(t, w); code != "INVALID_TOKEN" {
			t.Errorf("expected INVALID_TOKEN, got %s", code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		w := performRequest(router, sess.AccessToken)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "user-1") {
			t.Errorf("expected user id in response, got %s", w.Body.String())
		}
	})

	t.Run("valid token bumps session activity", func(t *testing.T) {
		before, err := svc.GetUserSessions(context.Background(), "user-1")
		if err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
		performRequest(router, sess.AccessToken)
		after, err := svc.GetUserSessions(context.Background(), "user-1")
		if err != nil {
			t.Fatal(err)
		}
		if !after[0].LastActiveAt.After(before[0].LastActiveAt) {
			t.Error("expected last active timestamp to move forward")
		}
	})
}

func TestAuthenticateMiddlewareExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestSessionService(t, -time.Minute)
	sess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, false)

	router := gin.New()
	router.Use(Authenticate(svc))
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, sess.AccessToken)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if code := responseCode(t, w); code != "TOKEN_EXPIRED" {
		t.Errorf("expected TOKEN_EXPIRED, got %s", code)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestSessionService(t, time.Minute)
	sess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, false)

	router := gin.New()
	router.Use(OptionalAuth(svc))
	router.GET("/protected", func(c *gin.Context) {
		if authCtx, ok := GetAuthContext(c); ok {
			c.JSON(http.StatusOK, gin.H{"userID": authCtx.Claims.Subject})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userID": nil})
	})

	t.Run("without token", func(t *testing.T) {
		w := performRequest(router, "")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("with invalid token", func(t *testing.T) {
		w := performRequest(router, "broken")
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("with valid token", func(t *testing.T) {
		w := performRequest(router, sess.AccessToken)
		if !strings.Contains(w.Body.String(), "user-1") {
			t.Errorf("expected user id in response, got %s", w.Body.String())
		}
	})
}

func TestAuthorizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestSessionService(t, time.Minute)
	citizenSess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, false)

	router := gin.New()
	router.Use(Authenticate(svc), Authorize(userTypes.ROLE_OFFICER, userTypes.ROLE_ADMIN))
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("role not allowed", func(t *testing.T) {
		w := performRequest(router, citizenSess.AccessToken)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
		if code := responseCode(t, w); code != "FORBIDDEN" {
			t.Errorf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("role allowed", func(t *testing.T) {
		officerSvc := newTestSessionService(t, time.Minute)
		officerSess := createTestSession(t, officerSvc, userTypes.ROLE_OFFICER, false)
		officerRouter := gin.New()
		officerRouter.Use(Authenticate(officerSvc), Authorize(userTypes.ROLE_OFFICER))
		officerRouter.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := performRequest(officerRouter, officerSess.AccessToken)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}

func TestRequire2FAMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestSessionService(t, time.Minute)

	router := gin.New()
	router.Use(Authenticate(svc), Require2FA())
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("without second factor", func(t *testing.T) {
		sess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, false)
		w := performRequest(router, sess.AccessToken)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
		if code := responseCode(t, w); code != "2FA_REQUIRED" {
			t.Errorf("expected 2FA_REQUIRED, got %s", code)
		}
	})

	t.Run("with second factor", func(t *testing.T) {
		sess := createTestSession(t, svc, userTypes.ROLE_CITIZEN, true)
		w := performRequest(router, sess.AccessToken)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}

func TestAuthRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.New(memstore.New(), ratelimit.Config{
		Window:      time.Minute,
		MaxAttempts: 3,
	})

	router := gin.New()
	router.POST("/login", AuthRateLimiter(limiter, "login"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	doPost := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.7:51234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		if w := doPost(); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := doPost()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %v", body["code"])
	}
	retryAfter, ok := body["retryAfter"].(float64)
	if !ok || retryAfter <= 0 {
		t.Errorf("expected positive retryAfter, got %v", body["retryAfter"])
	}
}

func TestRequirePayloadMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/submit", RequirePayload(), func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("empty body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("body accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"ok":true}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}
