package dto

// UpdateProfileRequest replaces every editable profile field. Role and email
// are managed elsewhere.
type UpdateProfileRequest struct {
	FullName      string `json:"fullName" validate:"max=120"`
	Mobile        string `json:"mobile" validate:"omitempty,mobile"`
	PANNumber     string `json:"panNumber" validate:"omitempty,pan"`
	AadhaarNumber string `json:"aadhaarNumber" validate:"omitempty,aadhaar"`
	EntityType    string `json:"entityType" validate:"required,oneof=client business"`
	CompanyName   string `json:"companyName" validate:"max=200"`
	GSTIN         string `json:"gstin" validate:"omitempty,gstin"`
	CIN           string `json:"cin" validate:"omitempty,len=21,alphanum"`
}
