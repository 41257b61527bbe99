package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/fiscal"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type applicationAPStore interface {
	CreateUnique(ctx context.Context, app *models.Application) error
	Transition(ctx context.Context, id string, mutate func(a *models.Application) error) (*models.Application, error)
	List(ctx context.Context, uid, financialYear string) ([]*models.Application, error)
}

type checklistSource interface {
	Checklist(ctx context.Context, uid, appType, financialYear string) (*dto.Checklist, error)
}

type applicationService struct {
	apps      applicationAPStore
	profiles  profileReader
	checklist checklistSource
	notify    notifier
	location  *time.Location
	clockNow  func() time.Time
	newID     func() string
}

func NewApplicationService(apps applicationAPStore, profiles profileReader, checklist checklistSource, notify notifier, loc *time.Location) *applicationService {
	if loc == nil {
		loc = time.UTC
	}
	return &applicationService{
		apps:      apps,
		profiles:  profiles,
		checklist: checklist,
		notify:    notify,
		location:  loc,
		clockNow:  time.Now,
		newID:     uuid.NewString,
	}
}

// Submit files an application once every required document type has an upload
// for the year.
func (s *applicationService) Submit(ctx context.Context, uid string, req dto.SubmitApplicationRequest) (*models.Application, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	fy, err := fiscal.ParseOrCurrent(req.FinancialYear, s.clockNow().In(s.location))
	if err != nil {
		return nil, errs.NewFieldValidationError(err.Error(), map[string]string{"financialYear": "format"})
	}

	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !profile.ProfileCompleted {
		return nil, errs.NewValidationError("complete your profile before submitting")
	}

	cl, err := s.checklist.Checklist(ctx, uid, req.Type, fy.String())
	if err != nil {
		return nil, err
	}
	if !cl.Complete {
		fields := make(map[string]string, len(cl.MissingRequired))
		for _, name := range cl.MissingRequired {
			fields[name] = "required"
		}
		return nil, errs.NewFieldValidationError(
			"please upload required documents before submitting: "+strings.Join(cl.MissingRequired, ", "),
			fields)
	}

	app := &models.Application{
		ApplicationID: s.newID(),
		UserID:        uid,
		Type:          req.Type,
		Status:        models.ApplicationSubmitted,
		FinancialYear: fy.String(),
	}
	if err := s.apps.CreateUnique(ctx, app); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("application submitted", "application_id", app.ApplicationID, "type", app.Type, "financial_year", app.FinancialYear)

	title := "Documents submitted"
	message := fmt.Sprintf("Your %s documents for FY %s were submitted for review.", app.Type, app.FinancialYear)
	if err := s.notify.Notify(ctx, uid, models.NotificationSystem, title, message); err != nil {
		log.Warn("failed to send submission confirmation", "error", err)
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, uid string) ([]*models.Application, error) {
	return s.apps.List(ctx, uid, "")
}

// Review decides a submitted application and notifies its owner.
func (s *applicationService) Review(ctx context.Context, actor dto.Actor, id string, req dto.ReviewRequest) (*models.Application, error) {
	if !actor.IsStaff() {
		return nil, errs.NewForbiddenError("only staff can review applications")
	}
	req.Note = strings.TrimSpace(req.Note)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	app, err := s.apps.Transition(ctx, id, func(a *models.Application) error {
		if a.Status != models.ApplicationSubmitted {
			return errs.NewValidationError(fmt.Sprintf("application is already %s", a.Status))
		}
		a.Status = req.Status
		a.ReviewNote = req.Note
		a.ReviewedBy = actor.UID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("application reviewed", "application_id", id, "status", app.Status, "owner", app.UserID)

	title := fmt.Sprintf("Application %s", app.Status)
	message := fmt.Sprintf("Your %s application for FY %s has been %s.", app.Type, app.FinancialYear, app.Status)
	if app.ReviewNote != "" {
		message += " Note: " + app.ReviewNote
	}
	if err := s.notify.Notify(ctx, app.UserID, models.NotificationReview, title, message); err != nil {
		log.Warn("failed to notify applicant", "application_id", id, "error", err)
	}
	return app, nil
}
