package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/handlers"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, token string) (*auth.Token, error) {
	if token == "" || token == "bad" {
		return nil, errors.New("invalid")
	}
	return &auth.Token{UID: token}, nil
}

type stubProfiles struct{}

func (stubProfiles) Get(_ context.Context, uid string) (*models.Profile, error) {
	switch uid {
	case "staff-1":
		return &models.Profile{UID: uid, Role: models.RoleStaff}, nil
	case "u1":
		return &models.Profile{UID: uid, Role: models.RoleUser}, nil
	}
	return nil, errs.NewNotFoundError("profile not found")
}

func newTestRouter() http.Handler {
	log := slog.New(logger.NewTestHandler(slog.LevelInfo))
	resp := response.New(log)
	deps := &handlers.Deps{Log: log, ResponseHandler: resp}
	return NewRouter(deps, Middlewares{
		Auth:      middleware.NewMiddleware(stubVerifier{}, stubProfiles{}, resp),
		Logger:    middleware.NewLoggerMiddleware(log).LoggerMiddleware,
		RateLimit: middleware.NewRateLimiter(1, 1, 1, resp).Handler,
	})
}

func do(h http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter()
	if code := do(h, http.MethodGet, "/healthz", ""); code != http.StatusOK {
		t.Fatalf("/healthz = %d", code)
	}
	if code := do(h, http.MethodGet, "/financial-years", ""); code != http.StatusOK {
		t.Fatalf("/financial-years = %d", code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newTestRouter()
	for _, path := range []string{"/me", "/profile", "/documents", "/notifications", "/admin/clients"} {
		if code := do(h, http.MethodGet, path, ""); code != http.StatusUnauthorized {
			t.Fatalf("%s without token = %d", path, code)
		}
	}
	if code := do(h, http.MethodPost, "/auth/logout", "bad"); code != http.StatusUnauthorized {
		t.Fatalf("/auth/logout with bad token = %d", code)
	}
}

func TestAdminRoutesNeedStaff(t *testing.T) {
	h := newTestRouter()
	if code := do(h, http.MethodGet, "/admin/stats", "u1"); code != http.StatusForbidden {
		t.Fatalf("client on /admin/stats = %d", code)
	}
	if code := do(h, http.MethodPut, "/admin/clients/u1/role", "staff-1"); code != http.StatusForbidden {
		t.Fatalf("staff on role change = %d", code)
	}
	if code := do(h, http.MethodPost, "/admin/taxonomy/seed", "staff-1"); code != http.StatusForbidden {
		t.Fatalf("staff on taxonomy seed = %d", code)
	}
}

func TestAuthRoutesRateLimited(t *testing.T) {
	h := newTestRouter()
	// the decode failure comes back as 400 before the limit trips
	if code := do(h, http.MethodPost, "/auth/login", ""); code != http.StatusBadRequest {
		t.Fatalf("first login = %d", code)
	}
	if code := do(h, http.MethodPost, "/auth/login", ""); code != http.StatusTooManyRequests {
		t.Fatalf("second login = %d", code)
	}
}

func TestAuthRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	h := newTestRouter()
	login := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "169.254.1.1:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := login("1.1.1.1, 203.0.113.7"); code != http.StatusBadRequest {
		t.Fatalf("first login = %d", code)
	}
	for i := 2; i < 20; i++ {
		spoofed := fmt.Sprintf("198.51.100.%d, 203.0.113.7", i)
		if code := login(spoofed); code != http.StatusTooManyRequests {
			t.Fatalf("login with forged %q = %d, want 429", spoofed, code)
		}
	}
	if code := login("203.0.113.8"); code != http.StatusBadRequest {
		t.Fatalf("a different client should have its own bucket, got %d", code)
	}
}
