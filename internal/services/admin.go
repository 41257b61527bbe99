package services

import (
	"context"
	"strings"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type profileADStore interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	ListSummaries(ctx context.Context) ([]*models.Profile, error)
	UpdateRole(ctx context.Context, uid, role string) error
	CountByRole(ctx context.Context, role, entityType string) (int, error)
	Delete(ctx context.Context, uid string) error
}

type documentADStore interface {
	List(ctx context.Context, uid string, filter dto.DocumentFilter) ([]*models.Document, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	DeleteByUser(ctx context.Context, uid string) (int, error)
}

type applicationADStore interface {
	List(ctx context.Context, uid, financialYear string) ([]*models.Application, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	DeleteByUser(ctx context.Context, uid string) (int, error)
}

type notificationADStore interface {
	DeleteByUser(ctx context.Context, uid string) (int, error)
}

type objectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// roleManager mirrors role changes and account removal into Firebase Auth.
type roleManager interface {
	SetRole(ctx context.Context, uid, role string) error
	DeleteUser(ctx context.Context, uid string) error
}

type adminService struct {
	profiles      profileADStore
	docs          documentADStore
	apps          applicationADStore
	notifications notificationADStore
	objects       objectDeleter
	identity      roleManager
}

func NewAdminService(profiles profileADStore, docs documentADStore, apps applicationADStore, notifications notificationADStore, objects objectDeleter, identity roleManager) *adminService {
	return &adminService{
		profiles:      profiles,
		docs:          docs,
		apps:          apps,
		notifications: notifications,
		objects:       objects,
		identity:      identity,
	}
}

// ListClients returns non-admin profiles of one entity type, optionally
// narrowed by a case-insensitive match on name, email or mobile.
func (s *adminService) ListClients(ctx context.Context, filter dto.ClientFilter) ([]*models.Profile, error) {
	entity := filter.EntityType
	if entity == "" {
		entity = models.EntityClient
	}
	if entity != models.EntityClient && entity != models.EntityBusiness {
		return nil, errs.NewFieldValidationError("entity type must be client or business", map[string]string{"entityType": "oneof"})
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	all, err := s.profiles.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Profile, 0, len(all))
	for _, p := range all {
		if p.Role == models.RoleAdmin || p.EntityType != entity {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func matchesSearch(p *models.Profile, needle string) bool {
	for _, field := range []string{p.FullName, p.Email, p.Mobile, p.CompanyName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *adminService) ClientDetail(ctx context.Context, uid string) (*dto.ClientDetail, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, uid, dto.DocumentFilter{})
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.List(ctx, uid, "")
	if err != nil {
		return nil, err
	}
	return &dto.ClientDetail{Profile: p, Documents: docs, Applications: apps}, nil
}

func (s *adminService) UpdateRole(ctx context.Context, actor dto.Actor, uid string, req dto.UpdateRoleRequest) (*models.Profile, error) {
	if !actor.IsAdmin() {
		return nil, errs.NewForbiddenError("only admins can change roles")
	}
	if actor.UID == uid {
		return nil, errs.NewForbiddenError("you cannot change your own role")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateRole(ctx, uid, req.Role); err != nil {
		return nil, err
	}
	log, ctx := logger.With(ctx, "target_uid", uid)
	if err := s.identity.SetRole(ctx, uid, req.Role); err != nil {
		// authorization reads the profile role, the claim is informational
		log.Error("failed to mirror role claim", "role", req.Role, "error", err)
	}
	log.Info("role updated", "role", req.Role, "by", actor.UID)
	return s.profiles.Get(ctx, uid)
}

// DeleteClient removes a client account together with everything it owns.
func (s *adminService) DeleteClient(ctx context.Context, actor dto.Actor, uid string) error {
	if !actor.IsAdmin() {
		return errs.NewForbiddenError("only admins can delete clients")
	}
	if actor.UID == uid {
		return errs.NewForbiddenError("you cannot delete your own account")
	}
	if _, err := s.profiles.Get(ctx, uid); err != nil {
		return err
	}
	log, ctx := logger.With(ctx, "target_uid", uid)

	docs, err := s.docs.List(ctx, uid, dto.DocumentFilter{})
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.objects.Delete(ctx, d.ObjectKey); err != nil {
			return err
		}
	}
	nDocs, err := s.docs.DeleteByUser(ctx, uid)
	if err != nil {
		return err
	}
	nApps, err := s.apps.DeleteByUser(ctx, uid)
	if err != nil {
		return err
	}
	nNotes, err := s.notifications.DeleteByUser(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, uid); err != nil {
		return err
	}
	if err := s.identity.DeleteUser(ctx, uid); err != nil {
		return err
	}
	log.Info("client deleted", "by", actor.UID, "documents", nDocs, "applications", nApps, "notifications", nNotes)
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*dto.Stats, error) {
	var (
		out dto.Stats
		err error
	)
	if out.Clients, err = s.profiles.CountByRole(ctx, models.RoleUser, models.EntityClient); err != nil {
		return nil, err
	}
	if out.Businesses, err = s.profiles.CountByRole(ctx, models.RoleUser, models.EntityBusiness); err != nil {
		return nil, err
	}
	if out.Staff, err = s.profiles.CountByRole(ctx, models.RoleStaff, ""); err != nil {
		return nil, err
	}
	if out.PendingDocuments, err = s.docs.CountByStatus(ctx, models.DocumentPending); err != nil {
		return nil, err
	}
	if out.SubmittedApplications, err = s.apps.CountByStatus(ctx, models.ApplicationSubmitted); err != nil {
		return nil, err
	}
	return &out, nil
}
