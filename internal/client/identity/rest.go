package identity

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
)

const serviceName = "identity"

// REST calls the Identity Toolkit and Secure Token endpoints for the flows the
// Admin SDK does not cover: password sign-in, token refresh and reset confirmation.
type REST struct {
	http            *resty.Client
	apiKey          string
	identityBaseURL string
	tokenBaseURL    string
}

func NewREST(identityBaseURL, secureTokenBaseURL, apiKey string) *REST {
	return &REST{
		http: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
		apiKey:          apiKey,
		identityBaseURL: strings.TrimRight(identityBaseURL, "/"),
		tokenBaseURL:    strings.TrimRight(secureTokenBaseURL, "/"),
	}
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (c *REST) SignInWithPassword(ctx context.Context, email, password string) (*dto.Session, error) {
	var out signInResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(map[string]any{
			"email":             email,
			"password":          password,
			"returnSecureToken": true,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(c.identityBaseURL + "/v1/accounts:signInWithPassword")
	if err := mapResponse(resp, err, &apiErr); err != nil {
		return nil, err
	}

	expires, _ := strconv.Atoi(out.ExpiresIn)
	return &dto.Session{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    expires,
		UID:          out.LocalID,
		Email:        out.Email,
	}, nil
}

func (c *REST) RefreshSession(ctx context.Context, refreshToken string) (*dto.Session, error) {
	var out refreshResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post(c.tokenBaseURL + "/v1/token")
	if err := mapResponse(resp, err, &apiErr); err != nil {
		return nil, err
	}

	expires, _ := strconv.Atoi(out.ExpiresIn)
	return &dto.Session{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    expires,
		UID:          out.UserID,
	}, nil
}

func (c *REST) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(map[string]string{
			"oobCode":     oobCode,
			"newPassword": newPassword,
		}).
		SetError(&apiErr).
		Post(c.identityBaseURL + "/v1/accounts:resetPassword")
	return mapResponse(resp, err, &apiErr)
}

// mapResponse turns transport failures and Identity Toolkit error codes into typed errors.
func mapResponse(resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		return errs.NewExternalServiceError(serviceName, "identity request failed", true, err)
	}
	if !resp.IsError() {
		return nil
	}

	// messages look like "WEAK_PASSWORD : Password should be at least 6 characters"
	code, _, _ := strings.Cut(apiErr.Error.Message, " ")
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		return errs.NewUnauthorizedError("invalid email or password")
	case "USER_DISABLED":
		return errs.NewUnauthorizedError("account is disabled")
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND", "INVALID_GRANT_TYPE", "MISSING_REFRESH_TOKEN":
		return errs.NewUnauthorizedError("session expired, please sign in again")
	case "EXPIRED_OOB_CODE", "INVALID_OOB_CODE":
		return errs.NewValidationError("reset link is invalid or has expired")
	case "WEAK_PASSWORD":
		return errs.NewFieldValidationError("password is too weak", map[string]string{"newPassword": "min=6"})
	}

	status := resp.StatusCode()
	transient := status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
	return errs.NewExternalServiceError(serviceName, "identity request rejected: "+apiErr.Error.Message, transient, nil)
}
