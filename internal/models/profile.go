package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
	RoleUser  = "user"
)

const (
	EntityClient   = "client"   // individual
	EntityBusiness = "business" // company / firm
)

// Profile is the identity record of a portal user. UID matches the Firebase Auth user.
// PANNumber and AadhaarNumber hold KMS ciphertext at rest; the store decrypts on read.
type Profile struct {
	UID              string    `firestore:"uid" json:"uid"`
	Email            string    `firestore:"email" json:"email"`
	FullName         string    `firestore:"fullName" json:"fullName"`
	Mobile           string    `firestore:"mobile" json:"mobile"`
	Role             string    `firestore:"role" json:"role"`
	EntityType       string    `firestore:"entityType" json:"entityType"`
	PANNumber        string    `firestore:"panNumber" json:"panNumber,omitempty"`
	AadhaarNumber    string    `firestore:"aadhaarNumber" json:"aadhaarNumber,omitempty"`
	CompanyName      string    `firestore:"companyName" json:"companyName,omitempty"`
	GSTIN            string    `firestore:"gstin" json:"gstin,omitempty"`
	CIN              string    `firestore:"cin" json:"cin,omitempty"`
	ProfileCompleted bool      `firestore:"profileCompleted" json:"profileCompleted"`
	CreatedAt        time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// IsStaff reports whether the profile may review documents and applications.
func (p *Profile) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleStaff
}

// Complete applies the completion rules: individuals need name, mobile and PAN,
// businesses need company name and GSTIN.
func (p *Profile) Complete() bool {
	if p.EntityType == EntityBusiness {
		return p.CompanyName != "" && p.GSTIN != ""
	}
	return p.FullName != "" && p.Mobile != "" && p.PANNumber != ""
}
