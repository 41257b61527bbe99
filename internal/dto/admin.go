package dto

import "github.com/GregMSThompson/ca-portal/internal/models"

type ClientFilter struct {
	EntityType string
	Search     string
}

type ClientDetail struct {
	Profile      *models.Profile       `json:"profile"`
	Documents    []*models.Document    `json:"documents"`
	Applications []*models.Application `json:"applications"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin staff user"`
}

type Stats struct {
	Clients               int `json:"clients"`
	Businesses            int `json:"businesses"`
	Staff                 int `json:"staff"`
	PendingDocuments      int `json:"pendingDocuments"`
	SubmittedApplications int `json:"submittedApplications"`
}

type ExportFilter struct {
	FinancialYear string
}

type FinancialYears struct {
	Current string   `json:"current"`
	Years   []string `json:"years"`
}
