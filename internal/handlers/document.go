package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/internal/response"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 64 << 10

type documentService interface {
	Upload(ctx context.Context, uid string, req dto.UploadDocument) (*models.Document, error)
	List(ctx context.Context, uid string, filter dto.DocumentFilter) ([]*models.Document, error)
	Checklist(ctx context.Context, uid, appType, financialYear string) (*dto.Checklist, error)
	SignedURL(ctx context.Context, actor dto.Actor, id string) (*dto.SignedURL, error)
	Download(ctx context.Context, actor dto.Actor, id string) (*dto.Download, error)
	Delete(ctx context.Context, uid, id string) error
	Review(ctx context.Context, actor dto.Actor, id string, req dto.ReviewRequest) (*models.Document, error)
}

type documentHandlers struct {
	ResponseHandler response.ResponseHandler
	DocumentSvc     documentService
	MaxRawBytes     int64
}

func NewDocumentHandlers(deps *Deps) *documentHandlers {
	return &documentHandlers{
		ResponseHandler: deps.ResponseHandler,
		DocumentSvc:     deps.DocumentSvc,
		MaxRawBytes:     deps.MaxRawUploadBytes,
	}
}

func (h *documentHandlers) DocumentRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListDocuments)
	r.Post("/", h.UploadDocument)
	r.Get("/checklist", h.Checklist) // must be before /{documentId}
	r.Get("/{documentId}/url", h.SignedURL)
	r.Get("/{documentId}/download", h.Download)
	r.Delete("/{documentId}", h.DeleteDocument)
	return r
}

func documentFilter(r *http.Request) dto.DocumentFilter {
	q := r.URL.Query()
	return dto.DocumentFilter{
		ApplicationType: q.Get("type"),
		FinancialYear:   q.Get("financialYear"),
		CategoryID:      q.Get("categoryId"),
		TypeID:          q.Get("typeId"),
		Status:          q.Get("status"),
	}
}

func (h *documentHandlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.DocumentSvc.List(r.Context(), middleware.UID(r.Context()), documentFilter(r))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, docs)
}

// UploadDocument accepts multipart/form-data with fields typeId, financialYear and file.
func (h *documentHandlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxRawBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.MaxRawBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ResponseHandler.HandleError(w, r, h.tooLarge())
			return
		}
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("expected a multipart form upload"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewFieldValidationError("file is required", map[string]string{"file": "required"}))
		return
	}
	defer file.Close()

	// the stored-size limit is enforced by the service after image compression
	content, err := io.ReadAll(io.LimitReader(file, h.MaxRawBytes+1))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("failed to read upload"))
		return
	}
	if int64(len(content)) > h.MaxRawBytes {
		h.ResponseHandler.HandleError(w, r, h.tooLarge())
		return
	}

	doc, err := h.DocumentSvc.Upload(r.Context(), middleware.UID(r.Context()), dto.UploadDocument{
		TypeID:        r.FormValue("typeId"),
		FinancialYear: r.FormValue("financialYear"),
		FileName:      header.Filename,
		Content:       content,
	})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, doc)
}

func (h *documentHandlers) tooLarge() error {
	return errs.NewFieldValidationError(
		"file exceeds the "+strconv.FormatInt(h.MaxRawBytes>>10, 10)+" KB upload limit",
		map[string]string{"file": "size"})
}

func (h *documentHandlers) Checklist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cl, err := h.DocumentSvc.Checklist(r.Context(), middleware.UID(r.Context()), q.Get("type"), q.Get("financialYear"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cl)
}

func (h *documentHandlers) SignedURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.DocumentSvc.SignedURL(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "documentId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, url)
}

func (h *documentHandlers) Download(w http.ResponseWriter, r *http.Request) {
	dl, err := h.DocumentSvc.Download(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "documentId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	defer dl.Body.Close()

	h.ResponseHandler.WriteFile(w, r, response.File{
		ContentType: dl.ContentType,
		FileName:    dl.FileName,
		Size:        dl.Size,
		Body:        dl.Body,
	})
}

func (h *documentHandlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.DocumentSvc.Delete(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "documentId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *documentHandlers) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	doc, err := h.DocumentSvc.Review(r.Context(), middleware.Actor(r.Context()), chi.URLParam(r, "documentId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, doc)
}
