package models

import "time"

// DocumentCategory groups document types on an upload checklist, e.g. "KYC" or "Income Proof".
type DocumentCategory struct {
	CategoryID      string    `firestore:"categoryId" json:"categoryId"`
	Name            string    `firestore:"name" json:"name"`
	ApplicationType string    `firestore:"applicationType" json:"applicationType"`
	OrderNo         int       `firestore:"orderNo" json:"orderNo"`
	IsActive        bool      `firestore:"isActive" json:"isActive"`
	CreatedAt       time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DocumentType is a single checklist entry. Unless AllowMultiple is set, a client keeps
// at most one document of the type per financial year and re-uploads replace it.
type DocumentType struct {
	TypeID        string    `firestore:"typeId" json:"typeId"`
	CategoryID    string    `firestore:"categoryId" json:"categoryId"`
	Name          string    `firestore:"name" json:"name"`
	Description   string    `firestore:"description" json:"description,omitempty"`
	OrderNo       int       `firestore:"orderNo" json:"orderNo"`
	IsRequired    bool      `firestore:"isRequired" json:"isRequired"`
	IsActive      bool      `firestore:"isActive" json:"isActive"`
	AllowMultiple bool      `firestore:"allowMultiple" json:"allowMultiple"`
	CreatedAt     time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt" json:"updatedAt"`
}
