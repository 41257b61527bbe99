package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
)

type memApplications struct {
	byID map[string]*models.Application
}

func newMemApplications() *memApplications {
	return &memApplications{byID: map[string]*models.Application{}}
}

func (m *memApplications) CreateUnique(_ context.Context, app *models.Application) error {
	for _, a := range m.byID {
		if a.UserID == app.UserID && a.Type == app.Type && a.FinancialYear == app.FinancialYear &&
			(a.Status == models.ApplicationSubmitted || a.Status == models.ApplicationApproved) {
			return errs.NewAlreadyExistsError("an application for this type and financial year is already open")
		}
	}
	cp := *app
	m.byID[app.ApplicationID] = &cp
	return nil
}

func (m *memApplications) Transition(_ context.Context, id string, mutate func(a *models.Application) error) (*models.Application, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, errs.NewNotFoundError("application not found")
	}
	cp := *a
	if err := mutate(&cp); err != nil {
		return nil, err
	}
	m.byID[id] = &cp
	return &cp, nil
}

func (m *memApplications) List(_ context.Context, uid, fy string) ([]*models.Application, error) {
	var out []*models.Application
	for _, a := range m.byID {
		if (uid == "" || a.UserID == uid) && (fy == "" || a.FinancialYear == fy) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memApplications) Exists(_ context.Context, uid, appType, fy string) (bool, error) {
	for _, a := range m.byID {
		if a.UserID == uid && a.Type == appType && a.FinancialYear == fy {
			return true, nil
		}
	}
	return false, nil
}

func (m *memApplications) DeleteByUser(_ context.Context, uid string) (int, error) {
	n := 0
	for id, a := range m.byID {
		if a.UserID == uid {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

func (m *memApplications) CountByStatus(_ context.Context, status string) (int, error) {
	n := 0
	for _, a := range m.byID {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

type stubChecklist struct {
	checklist *dto.Checklist
	gotYear   string
}

func (s *stubChecklist) Checklist(_ context.Context, _, appType, fy string) (*dto.Checklist, error) {
	s.gotYear = fy
	cp := *s.checklist
	cp.ApplicationType = appType
	cp.FinancialYear = fy
	return &cp, nil
}

func newApplicationFixture(complete bool) (*applicationService, *memApplications, *stubNotifier, *stubChecklist) {
	apps := newMemApplications()
	notify := &stubNotifier{}
	cl := &stubChecklist{checklist: &dto.Checklist{Complete: complete, MissingRequired: []string{}}}
	if !complete {
		cl.checklist.MissingRequired = []string{"PAN Card", "Aadhaar Card"}
	}
	profiles := newMemProfiles(
		&models.Profile{UID: "owner", ProfileCompleted: true},
		&models.Profile{UID: "fresh"},
	)
	svc := NewApplicationService(apps, profiles, cl, notify, time.UTC)
	svc.clockNow = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) }
	svc.newID = sequentialIDs()
	return svc, apps, notify, cl
}

func TestApplicationSubmitBlockedByMissingRequired(t *testing.T) {
	svc, apps, _, _ := newApplicationFixture(false)

	_, err := svc.Submit(helpers.TestCtx(), "owner", dto.SubmitApplicationRequest{Type: "tax", FinancialYear: "2024-25"})
	var v *errs.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(v.Message, "PAN Card") || v.Fields["Aadhaar Card"] != "required" {
		t.Fatalf("missing types not reported: %+v", v)
	}
	if len(apps.byID) != 0 {
		t.Fatalf("application should not be created")
	}
}

func TestApplicationSubmitDefaultsToCurrentYear(t *testing.T) {
	svc, apps, notify, cl := newApplicationFixture(true)

	app, err := svc.Submit(helpers.TestCtx(), "owner", dto.SubmitApplicationRequest{Type: "loan"})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	// February 2026 belongs to FY 2025-26
	if app.FinancialYear != "2025-26" || cl.gotYear != "2025-26" {
		t.Fatalf("unexpected year %s (checklist %s)", app.FinancialYear, cl.gotYear)
	}
	if app.Status != models.ApplicationSubmitted || len(apps.byID) != 1 {
		t.Fatalf("application not stored as submitted: %+v", app)
	}
	if len(notify.calls) != 1 || notify.calls[0].uid != "owner" {
		t.Fatalf("confirmation not sent: %+v", notify.calls)
	}
}

func TestApplicationSubmitTwice(t *testing.T) {
	svc, _, _, _ := newApplicationFixture(true)
	ctx := helpers.TestCtx()
	req := dto.SubmitApplicationRequest{Type: "tax", FinancialYear: "2024-25"}

	if _, err := svc.Submit(ctx, "owner", req); err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	var exists *errs.AlreadyExistsError
	if _, err := svc.Submit(ctx, "owner", req); !errors.As(err, &exists) {
		t.Fatalf("second Submit should conflict, got %v", err)
	}
}

func TestApplicationSubmitNeedsCompleteProfile(t *testing.T) {
	svc, _, _, _ := newApplicationFixture(true)
	var v *errs.ValidationError
	if _, err := svc.Submit(helpers.TestCtx(), "fresh", dto.SubmitApplicationRequest{Type: "tax"}); !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestApplicationReview(t *testing.T) {
	svc, _, notify, _ := newApplicationFixture(true)
	ctx := helpers.TestCtx()
	app, _ := svc.Submit(ctx, "owner", dto.SubmitApplicationRequest{Type: "tax", FinancialYear: "2024-25"})
	notify.calls = nil

	var forbidden *errs.ForbiddenError
	if _, err := svc.Review(ctx, dto.Actor{UID: "owner", Role: models.RoleUser}, app.ApplicationID, dto.ReviewRequest{Status: "approved"}); !errors.As(err, &forbidden) {
		t.Fatalf("client review should be forbidden, got %v", err)
	}

	admin := dto.Actor{UID: "admin-1", Role: models.RoleAdmin}
	got, err := svc.Review(ctx, admin, app.ApplicationID, dto.ReviewRequest{Status: "approved"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if got.Status != models.ApplicationApproved || got.ReviewedBy != "admin-1" {
		t.Fatalf("unexpected review result: %+v", got)
	}
	if len(notify.calls) != 1 || notify.calls[0].kind != models.NotificationReview {
		t.Fatalf("owner not notified: %+v", notify.calls)
	}

	var v *errs.ValidationError
	if _, err := svc.Review(ctx, admin, app.ApplicationID, dto.ReviewRequest{Status: "rejected"}); !errors.As(err, &v) {
		t.Fatalf("reviewing a decided application should fail, got %v", err)
	}
	if _, err := svc.Review(ctx, admin, app.ApplicationID, dto.ReviewRequest{Status: "pending"}); !errors.As(err, &v) {
		t.Fatalf("invalid status should fail validation, got %v", err)
	}
}
