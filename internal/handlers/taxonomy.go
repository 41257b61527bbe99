package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

type taxonomyService interface {
	Tree(ctx context.Context, appType string, includeInactive bool) ([]dto.CategoryNode, error)
	CreateCategory(ctx context.Context, req dto.CategoryRequest) (*models.DocumentCategory, error)
	UpdateCategory(ctx context.Context, id string, req dto.CategoryRequest) (*models.DocumentCategory, error)
	DeleteCategory(ctx context.Context, id string) error
	CreateType(ctx context.Context, req dto.TypeRequest) (*models.DocumentType, error)
	UpdateType(ctx context.Context, id string, req dto.TypeRequest) (*models.DocumentType, error)
	DeleteType(ctx context.Context, id string) error
	Seed(ctx context.Context) (dto.SeedResult, error)
}

type taxonomyHandlers struct {
	ResponseHandler response.ResponseHandler
	TaxonomySvc     taxonomyService
}

func NewTaxonomyHandlers(deps *Deps) *taxonomyHandlers {
	return &taxonomyHandlers{
		ResponseHandler: deps.ResponseHandler,
		TaxonomySvc:     deps.TaxonomySvc,
	}
}

// TaxonomyRoutes is the client checklist view: active entries only.
func (h *taxonomyHandlers) TaxonomyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.tree(false))
	return r
}

// AdminRoutes manage categories and types. Callers gate it to admins.
func (h *taxonomyHandlers) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.tree(true))
	r.Post("/seed", h.Seed)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{categoryId}", h.UpdateCategory)
	r.Delete("/categories/{categoryId}", h.DeleteCategory)
	r.Post("/types", h.CreateType)
	r.Put("/types/{typeId}", h.UpdateType)
	r.Delete("/types/{typeId}", h.DeleteType)
	return r
}

func (h *taxonomyHandlers) tree(includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree, err := h.TaxonomySvc.Tree(r.Context(), r.URL.Query().Get("type"), includeInactive)
		if err != nil {
			h.ResponseHandler.HandleError(w, r, err)
			return
		}
		h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tree)
	}
}

func (h *taxonomyHandlers) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := h.TaxonomySvc.Seed(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, res)
}

func (h *taxonomyHandlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	c, err := h.TaxonomySvc.CreateCategory(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, c)
}

func (h *taxonomyHandlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	c, err := h.TaxonomySvc.UpdateCategory(r.Context(), chi.URLParam(r, "categoryId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, c)
}

func (h *taxonomyHandlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.TaxonomySvc.DeleteCategory(r.Context(), chi.URLParam(r, "categoryId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *taxonomyHandlers) CreateType(w http.ResponseWriter, r *http.Request) {
	var req dto.TypeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	t, err := h.TaxonomySvc.CreateType(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, t)
}

func (h *taxonomyHandlers) UpdateType(w http.ResponseWriter, r *http.Request) {
	var req dto.TypeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	t, err := h.TaxonomySvc.UpdateType(r.Context(), chi.URLParam(r, "typeId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, t)
}

func (h *taxonomyHandlers) DeleteType(w http.ResponseWriter, r *http.Request) {
	if err := h.TaxonomySvc.DeleteType(r.Context(), chi.URLParam(r, "typeId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
