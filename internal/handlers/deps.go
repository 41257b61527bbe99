package handlers

import (
	"log/slog"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	AuthSvc         authService
	ProfileSvc      profileService
	TaxonomySvc     taxonomyService
	DocumentSvc     documentService
	ApplicationSvc  applicationService
	NotificationSvc notificationService
	AdminSvc        adminService
	// MaxRawUploadBytes caps the file as received; images are compressed
	// down to the stored limit by the document service.
	MaxRawUploadBytes int64
	Location        *time.Location
}
