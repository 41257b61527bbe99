package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type adminService interface {
	ListClients(ctx context.Context, filter dto.ClientFilter) ([]*models.Profile, error)
	ClientDetail(ctx context.Context, uid string) (*dto.ClientDetail, error)
	UpdateRole(ctx context.Context, actor dto.Actor, uid string, req dto.UpdateRoleRequest) (*models.Profile, error)
	DeleteClient(ctx context.Context, actor dto.Actor, uid string) error
	Stats(ctx context.Context) (*dto.Stats, error)
	Export(ctx context.Context, filter dto.ExportFilter) ([]byte, error)
}

type adminHandlers struct {
	ResponseHandler response.ResponseHandler
	AdminSvc        adminService

	documents     *documentHandlers
	applications  *applicationHandlers
	notifications *notificationHandlers
	taxonomy      *taxonomyHandlers
}

func NewAdminHandlers(deps *Deps) *adminHandlers {
	return &adminHandlers{
		ResponseHandler: deps.ResponseHandler,
		AdminSvc:        deps.AdminSvc,
		documents:       NewDocumentHandlers(deps),
		applications:    NewApplicationHandlers(deps),
		notifications:   NewNotificationHandlers(deps),
		taxonomy:        NewTaxonomyHandlers(deps),
	}
}

// AdminRoutes is the staff dashboard. Mount behind a staff check; routes that
// change roles, delete accounts or edit the taxonomy also pass through requireAdmin.
func (h *adminHandlers) AdminRoutes(requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/clients", h.ListClients)
	r.Get("/clients/{clientId}", h.ClientDetail)
	r.Get("/stats", h.Stats)
	r.Get("/export", h.Export)
	r.Put("/documents/{documentId}/status", h.documents.ReviewDocument)
	r.Get("/documents/{documentId}/url", h.documents.SignedURL)
	r.Get("/documents/{documentId}/download", h.documents.Download)
	r.Put("/applications/{applicationId}/status", h.applications.ReviewApplication)
	r.Post("/notifications", h.notifications.SendNotification)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Put("/clients/{clientId}/role", h.UpdateRole)
		r.Delete("/clients/{clientId}", h.DeleteClient)
		r.Mount("/taxonomy", h.taxonomy.AdminRoutes())
	})
	return r
}

func (h *adminHandlers) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clients, err := h.AdminSvc.ListClients(r.Context(), dto.ClientFilter{
		EntityType: q.Get("entityType"),
		Search:     q.Get("search"),
	})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, clients)
}

func (h *adminHandlers) ClientDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.AdminSvc.ClientDetail(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, detail)
}

func (h *adminHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	p, err := h.AdminSvc.UpdateRole(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "clientId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, p)
}

func (h *adminHandlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.AdminSvc.DeleteClient(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "clientId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *adminHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.AdminSvc.Stats(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, st)
}

func (h *adminHandlers) Export(w http.ResponseWriter, r *http.Request) {
	filter := dto.ExportFilter{FinancialYear: r.URL.Query().Get("financialYear")}
	data, err := h.AdminSvc.Export(r.Context(), filter)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteFile(w, r, response.File{
		ContentType: xlsxContentType,
		FileName:    exportFileName(filter),
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
}

// exportFileName names the workbook after the filter, e.g. ca-portal-2024-25.xlsx.
func exportFileName(filter dto.ExportFilter) string {
	if filter.FinancialYear == "" {
		return "ca-portal-all.xlsx"
	}
	return fmt.Sprintf("ca-portal-%s.xlsx", filter.FinancialYear)
}
