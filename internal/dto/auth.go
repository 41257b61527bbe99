package dto

import "github.com/GregMSThompson/ca-portal/internal/models"

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	OobCode     string `json:"oobCode" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Session is the token pair returned by sign-in and refresh.
type Session struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
	UID          string `json:"uid"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Nav sections shown by the role-aware header.
const (
	NavDashboard     = "dashboard"
	NavDocuments     = "documents"
	NavNotifications = "notifications"
	NavAdmin         = "admin"
)

type Nav struct {
	Sections    []string `json:"sections"`
	UnreadCount int      `json:"unreadCount"`
}

type Me struct {
	Profile *models.Profile `json:"profile"`
	Nav     Nav             `json:"nav"`
}

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UID  string
	Role string
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleStaff
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
