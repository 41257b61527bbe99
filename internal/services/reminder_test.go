package services

import (
	"strings"
	"testing"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
)

func newReminderFixture(now time.Time) (*reminderService, *memApplications, *stubNotifier) {
	profiles := newMemProfiles(
		&models.Profile{UID: "admin-1", Role: models.RoleAdmin},
		&models.Profile{UID: "u-done", Role: models.RoleUser, ProfileCompleted: true},
		&models.Profile{UID: "u-filed", Role: models.RoleUser, ProfileCompleted: true},
		&models.Profile{UID: "u-new", Role: models.RoleUser},
	)
	apps := newMemApplications()
	apps.byID["a1"] = &models.Application{ApplicationID: "a1", UserID: "u-filed", Type: models.ApplicationTax, FinancialYear: "2024-25", Status: models.ApplicationSubmitted}
	notify := &stubNotifier{}
	svc := NewReminderService(profiles, apps, notify, time.UTC)
	svc.clockNow = func() time.Time { return now }
	return svc, apps, notify
}

func TestProfileReminders(t *testing.T) {
	svc, _, notify := newReminderFixture(time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC))

	n, err := svc.ProfileReminders(helpers.TestCtx())
	if err != nil {
		t.Fatalf("ProfileReminders error: %v", err)
	}
	if n != 1 || notify.calls[0].uid != "u-new" || notify.calls[0].kind != models.NotificationReminder {
		t.Fatalf("expected one reminder for u-new, got %+v", notify.calls)
	}
}

func TestFilingReminders(t *testing.T) {
	svc, _, notify := newReminderFixture(time.Date(2025, time.July, 7, 9, 0, 0, 0, time.UTC))

	n, err := svc.FilingReminders(helpers.TestCtx())
	if err != nil {
		t.Fatalf("FilingReminders error: %v", err)
	}
	if n != 1 || notify.calls[0].uid != "u-done" {
		t.Fatalf("expected one reminder for u-done, got %+v", notify.calls)
	}
	if !strings.Contains(notify.calls[0].title, "2024-25") || !strings.Contains(notify.calls[0].message, "31 July 2025") {
		t.Fatalf("reminder should name the year and deadline: %+v", notify.calls[0])
	}
}

func TestFilingRemindersAfterDeadline(t *testing.T) {
	svc, _, notify := newReminderFixture(time.Date(2025, time.August, 4, 9, 0, 0, 0, time.UTC))

	n, err := svc.FilingReminders(helpers.TestCtx())
	if err != nil {
		t.Fatalf("FilingReminders error: %v", err)
	}
	if n != 0 || len(notify.calls) != 0 {
		t.Fatalf("no reminders expected after the deadline")
	}
}
