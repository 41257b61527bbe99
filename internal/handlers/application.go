package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

type applicationService interface {
	Submit(ctx context.Context, uid string, req dto.SubmitApplicationRequest) (*models.Application, error)
	List(ctx context.Context, uid string) ([]*models.Application, error)
	Review(ctx context.Context, actor dto.Actor, id string, req dto.ReviewRequest) (*models.Application, error)
}

type applicationHandlers struct {
	ResponseHandler response.ResponseHandler
	ApplicationSvc  applicationService
}

func NewApplicationHandlers(deps *Deps) *applicationHandlers {
	return &applicationHandlers{
		ResponseHandler: deps.ResponseHandler,
		ApplicationSvc:  deps.ApplicationSvc,
	}
}

func (h *applicationHandlers) ApplicationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListApplications)
	r.Post("/", h.SubmitApplication)
	return r
}

func (h *applicationHandlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.ApplicationSvc.List(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, apps)
}

func (h *applicationHandlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	app, err := h.ApplicationSvc.Submit(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, app)
}

func (h *applicationHandlers) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	app, err := h.ApplicationSvc.Review(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "applicationId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, app)
}
