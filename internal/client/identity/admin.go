package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

// Admin wraps the Firebase Admin SDK user management calls.
type Admin struct {
	client *auth.Client
}

func NewAdmin(client *auth.Client) *Admin {
	return &Admin{client: client}
}

func (a *Admin) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName).
		EmailVerified(false)
	rec, err := a.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", errs.NewAlreadyExistsError("an account with this email already exists")
		}
		return "", errs.NewExternalServiceError(serviceName, "failed to create user", false, err)
	}
	return rec.UID, nil
}

func (a *Admin) DeleteUser(ctx context.Context, uid string) error {
	if err := a.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return nil
		}
		return errs.NewExternalServiceError(serviceName, "failed to delete user", false, err)
	}
	return nil
}

func (a *Admin) UpdatePassword(ctx context.Context, uid, password string) error {
	if _, err := a.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password)); err != nil {
		if auth.IsUserNotFound(err) {
			return errs.NewNotFoundError("user not found")
		}
		return errs.NewExternalServiceError(serviceName, "failed to update password", false, err)
	}
	return nil
}

func (a *Admin) RevokeSessions(ctx context.Context, uid string) error {
	if err := a.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return errs.NewExternalServiceError(serviceName, "failed to revoke sessions", false, err)
	}
	return nil
}

// PasswordResetLink returns a reset link. Unknown emails yield a NotFoundError.
func (a *Admin) PasswordResetLink(ctx context.Context, email, continueURL string) (string, error) {
	var settings *auth.ActionCodeSettings
	if continueURL != "" {
		settings = &auth.ActionCodeSettings{URL: continueURL}
	}
	link, err := a.client.PasswordResetLinkWithSettings(ctx, email, settings)
	if err != nil {
		if auth.IsUserNotFound(err) || auth.IsEmailNotFound(err) {
			return "", errs.NewNotFoundError("no account for email")
		}
		return "", errs.NewExternalServiceError(serviceName, "failed to generate reset link", false, err)
	}
	return link, nil
}

// SetRole mirrors the profile role into the custom claims so clients can gate views
// without a profile read.
func (a *Admin) SetRole(ctx context.Context, uid, role string) error {
	if err := a.client.SetCustomUserClaims(ctx, uid, map[string]any{"role": role}); err != nil {
		if auth.IsUserNotFound(err) {
			return errs.NewNotFoundError("user not found")
		}
		return errs.NewExternalServiceError(serviceName, "failed to set role claim", false, err)
	}
	return nil
}
