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

type notificationService interface {
	List(ctx context.Context, uid string, unreadOnly bool) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, uid string) (*dto.UnreadCount, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
	Send(ctx context.Context, actor dto.Actor, req dto.SendNotificationRequest) (*dto.SendResult, error)
}

type notificationHandlers struct {
	ResponseHandler response.ResponseHandler
	NotificationSvc notificationService
}

func NewNotificationHandlers(deps *Deps) *notificationHandlers {
	return &notificationHandlers{
		ResponseHandler: deps.ResponseHandler,
		NotificationSvc: deps.NotificationSvc,
	}
}

func (h *notificationHandlers) NotificationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListNotifications)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/read-all", h.MarkAllRead) // must be before /{notificationId}
	r.Post("/{notificationId}/read", h.MarkRead)
	return r
}

func (h *notificationHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.NotificationSvc.List(r.Context(), middleware.UID(r.Context()), queryBool(r, "unread"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, list)
}

func (h *notificationHandlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.NotificationSvc.UnreadCount(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, c)
}

func (h *notificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.NotificationSvc.MarkRead(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "notificationId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *notificationHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.NotificationSvc.MarkAllRead(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]int{"updated": n})
}

func (h *notificationHandlers) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req dto.SendNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	res, err := h.NotificationSvc.Send(r.Context(), middleware.Actor(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, res)
}
