package dto

import "github.com/GregMSThompson/ca-portal/internal/models"

type CategoryRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	ApplicationType string `json:"applicationType" validate:"required,oneof=loan tax"`
	OrderNo         int    `json:"orderNo" validate:"min=0"`
	IsActive        *bool  `json:"isActive"`
}

type TypeRequest struct {
	CategoryID    string `json:"categoryId" validate:"required"`
	Name          string `json:"name" validate:"required,max=120"`
	Description   string `json:"description" validate:"max=500"`
	OrderNo       int    `json:"orderNo" validate:"min=0"`
	IsRequired    bool   `json:"isRequired"`
	IsActive      *bool  `json:"isActive"`
	AllowMultiple bool   `json:"allowMultiple"`
}

// CategoryNode is a category with its ordered types.
type CategoryNode struct {
	*models.DocumentCategory
	Types []*models.DocumentType `json:"types"`
}

type SeedResult struct {
	Categories int `json:"categories"`
	Types      int `json:"types"`
}
