package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type roleSource interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

type Middleware struct {
	AuthClient tokenVerifier
	Profiles   roleSource
	Resp       response.ResponseHandler
}

func NewMiddleware(client tokenVerifier, profiles roleSource, resp response.ResponseHandler) *Middleware {
	return &Middleware{AuthClient: client, Profiles: profiles, Resp: resp}
}

// context key
type contextKey string

const (
	UIDKey   contextKey = "uid"
	EmailKey contextKey = "email"
	RoleKey  contextKey = "role"
)

// FirebaseAuth verifies the bearer ID token and stores uid and email in the context.
func (m *Middleware) FirebaseAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			m.Resp.HandleError(w, r, errs.NewUnauthorizedError("missing Authorization header"))
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.Resp.HandleError(w, r, errs.NewUnauthorizedError("invalid Authorization header"))
			return
		}

		token, err := m.AuthClient.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			m.Resp.HandleError(w, r, errs.NewUnauthorizedError("invalid or expired token"))
			return
		}

		email, _ := token.Claims["email"].(string)
		_, ctx := logger.With(r.Context(), "uid", token.UID)
		ctx = context.WithValue(ctx, UIDKey, token.UID)
		ctx = context.WithValue(ctx, EmailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadRole resolves the caller's role from their profile. Must run after FirebaseAuth.
// A caller without a profile yet is treated as a client.
func (m *Middleware) LoadRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := models.RoleUser
		p, err := m.Profiles.Get(r.Context(), UID(r.Context()))
		var notFound *errs.NotFoundError
		switch {
		case err == nil:
			if p.Role != "" {
				role = p.Role
			}
		case errors.As(err, &notFound):
		default:
			m.Resp.HandleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), RoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role is not one of roles.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, Role(r.Context())) {
				m.Resp.HandleError(w, r, errs.NewForbiddenError("you do not have access to this resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) RequireStaff(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin, models.RoleStaff)(next)
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(models.RoleAdmin)(next)
}

// Helper to extract UID
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

func Email(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

func Role(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

func Actor(ctx context.Context) dto.Actor {
	return dto.Actor{UID: UID(ctx), Role: Role(ctx)}
}
