package models

import (
	"time"
)

const (
	DocumentPending  = "pending"
	DocumentApproved = "approved"
	DocumentRejected = "rejected"
)

// Document is one uploaded file. ObjectKey points into the document bucket.
type Document struct {
	DocumentID      string    `firestore:"documentId" json:"documentId"`
	UserID          string    `firestore:"userId" json:"userId"`
	ApplicationType string    `firestore:"applicationType" json:"applicationType"` // "loan" or "tax"
	CategoryID      string    `firestore:"categoryId" json:"categoryId"`
	TypeID          string    `firestore:"typeId" json:"typeId"`
	TypeName        string    `firestore:"typeName" json:"typeName"`
	FileName        string    `firestore:"fileName" json:"fileName"`
	ObjectKey       string    `firestore:"objectKey" json:"-"`
	ContentType     string    `firestore:"contentType" json:"contentType"`
	Size            int64     `firestore:"size" json:"size"`
	Status          string    `firestore:"status" json:"status"`
	ReviewNote      string    `firestore:"reviewNote" json:"reviewNote,omitempty"`
	ReviewedBy      string    `firestore:"reviewedBy" json:"reviewedBy,omitempty"`
	FinancialYear   string    `firestore:"financialYear" json:"financialYear"` // "2024-25"
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`
}
