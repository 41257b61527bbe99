package handlers

import (
	"context"
	"net/http"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

type authService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*models.Profile, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.Session, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.Session, error)
	Logout(ctx context.Context, uid string) error
	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, uid string, req dto.ChangePasswordRequest) error
	Me(ctx context.Context, uid string) (*dto.Me, error)
}

type authHandlers struct {
	ResponseHandler response.ResponseHandler
	AuthSvc         authService
}

func NewAuthHandlers(deps *Deps) *authHandlers {
	return &authHandlers{
		ResponseHandler: deps.ResponseHandler,
		AuthSvc:         deps.AuthSvc,
	}
}

type messageBody struct {
	Message string `json:"message"`
}

func (h *authHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	profile, err := h.AuthSvc.Signup(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, profile)
}

func (h *authHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	session, err := h.AuthSvc.Login(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, session)
}

func (h *authHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	session, err := h.AuthSvc.Refresh(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, session)
}

func (h *authHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.AuthSvc.ForgotPassword(r.Context(), req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	// same answer whether or not the address is registered
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, messageBody{
		Message: "If an account exists for that email, a reset link has been sent.",
	})
}

func (h *authHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.AuthSvc.ResetPassword(r.Context(), req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, messageBody{Message: "Password updated. You can now log in."})
}

func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthSvc.Logout(r.Context(), middleware.UID(r.Context())); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *authHandlers) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.AuthSvc.Me(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, me)
}

func (h *authHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.AuthSvc.ChangePassword(r.Context(), middleware.UID(r.Context()), req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
