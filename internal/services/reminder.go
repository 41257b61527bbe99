package services

import (
	"context"
	"fmt"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/fiscal"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type profileRMStore interface {
	ListByRole(ctx context.Context, role string) ([]*models.Profile, error)
}

type applicationRMStore interface {
	Exists(ctx context.Context, uid, appType, financialYear string) (bool, error)
}

type bulkNotifier interface {
	NotifyMany(ctx context.Context, uids []string, kind, title, message string) (int, error)
}

type reminderService struct {
	profiles profileRMStore
	apps     applicationRMStore
	notify   bulkNotifier
	location *time.Location
	clockNow func() time.Time
}

func NewReminderService(profiles profileRMStore, apps applicationRMStore, notify bulkNotifier, loc *time.Location) *reminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &reminderService{
		profiles: profiles,
		apps:     apps,
		notify:   notify,
		location: loc,
		clockNow: time.Now,
	}
}

// ProfileReminders nudges every client whose profile is still incomplete.
func (s *reminderService) ProfileReminders(ctx context.Context) (int, error) {
	users, err := s.profiles.ListByRole(ctx, models.RoleUser)
	if err != nil {
		return 0, err
	}
	var uids []string
	for _, p := range users {
		if !p.ProfileCompleted {
			uids = append(uids, p.UID)
		}
	}
	n, err := s.notify.NotifyMany(ctx, uids, models.NotificationReminder,
		"Complete your profile",
		"Add your contact and KYC details so we can start working on your documents.")
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("profile reminders created", "count", n)
	return n, nil
}

// FilingReminders reminds complete clients that have not yet submitted a tax
// application for the financial year that just ended.
func (s *reminderService) FilingReminders(ctx context.Context) (int, error) {
	now := s.clockNow().In(s.location)
	fy := fiscal.Current(now).Previous()
	deadline := fy.FilingDeadline(s.location)
	if now.After(deadline) {
		logger.FromContext(ctx).Info("filing deadline passed, no reminders", "financial_year", fy.String())
		return 0, nil
	}

	users, err := s.profiles.ListByRole(ctx, models.RoleUser)
	if err != nil {
		return 0, err
	}
	var uids []string
	for _, p := range users {
		if !p.ProfileCompleted {
			continue
		}
		filed, err := s.apps.Exists(ctx, p.UID, models.ApplicationTax, fy.String())
		if err != nil {
			return 0, err
		}
		if !filed {
			uids = append(uids, p.UID)
		}
	}

	title := fmt.Sprintf("Tax documents for FY %s", fy)
	message := fmt.Sprintf("Please upload your documents for FY %s and submit your tax application before %s.",
		fy, deadline.Format("2 January 2006"))
	n, err := s.notify.NotifyMany(ctx, uids, models.NotificationReminder, title, message)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Info("filing reminders created", "count", n, "financial_year", fy.String())
	return n, nil
}
