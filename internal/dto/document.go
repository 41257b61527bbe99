package dto

import (
	"io"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/models"
)

// UploadDocument is a decoded multipart upload.
type UploadDocument struct {
	TypeID        string
	FinancialYear string
	FileName      string
	Content       []byte
}

type DocumentFilter struct {
	ApplicationType string
	FinancialYear   string
	CategoryID      string
	TypeID          string
	Status          string
}

type ChecklistType struct {
	*models.DocumentType
	Documents []*models.Document `json:"documents"`
}

type ChecklistCategory struct {
	*models.DocumentCategory
	Types []ChecklistType `json:"types"`
}

// Checklist is the upload page grouping for one application type and year.
type Checklist struct {
	ApplicationType string              `json:"applicationType"`
	FinancialYear   string              `json:"financialYear"`
	Categories      []ChecklistCategory `json:"categories"`
	MissingRequired []string            `json:"missingRequired"`
	Complete        bool                `json:"complete"`
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Download streams a stored object. Callers must close Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	FileName    string
	Size        int64
}

type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"max=1000"`
}
