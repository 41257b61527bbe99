package dto

type SubmitApplicationRequest struct {
	Type          string `json:"type" validate:"required,oneof=loan tax"`
	FinancialYear string `json:"financialYear"`
}
