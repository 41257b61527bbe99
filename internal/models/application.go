package models

import (
	"time"
)

const (
	ApplicationLoan = "loan"
	ApplicationTax  = "tax"
)

const (
	ApplicationSubmitted = "submitted"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
)

type Application struct {
	ApplicationID string    `firestore:"applicationId" json:"applicationId"`
	UserID        string    `firestore:"userId" json:"userId"`
	Type          string    `firestore:"type" json:"type"`
	Status        string    `firestore:"status" json:"status"`
	FinancialYear string    `firestore:"financialYear" json:"financialYear"`
	ReviewNote    string    `firestore:"reviewNote" json:"reviewNote,omitempty"`
	ReviewedBy    string    `firestore:"reviewedBy" json:"reviewedBy,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func ValidApplicationType(t string) bool {
	return t == ApplicationLoan || t == ApplicationTax
}
