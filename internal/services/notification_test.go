package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
)

type memNotifications struct {
	items      []*models.Notification
	batchCalls int
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memNotifications) CreateBatch(ctx context.Context, ns []*models.Notification) error {
	m.batchCalls++
	for _, n := range ns {
		_ = m.Create(ctx, n)
	}
	return nil
}

func (m *memNotifications) List(_ context.Context, uid string, unreadOnly bool) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range m.items {
		if n.UserID == uid && (!unreadOnly || !n.Read) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memNotifications) CountUnread(ctx context.Context, uid string) (int, error) {
	unread, _ := m.List(ctx, uid, true)
	return len(unread), nil
}

func (m *memNotifications) MarkRead(_ context.Context, uid, id string) error {
	for _, n := range m.items {
		if n.NotificationID == id && n.UserID == uid {
			n.Read = true
			return nil
		}
	}
	return errs.NewNotFoundError("notification not found")
}

func (m *memNotifications) MarkAllRead(_ context.Context, uid string) (int, error) {
	c := 0
	for _, n := range m.items {
		if n.UserID == uid && !n.Read {
			n.Read = true
			c++
		}
	}
	return c, nil
}

func (m *memNotifications) DeleteByUser(_ context.Context, uid string) (int, error) {
	kept := m.items[:0]
	c := 0
	for _, n := range m.items {
		if n.UserID == uid {
			c++
			continue
		}
		kept = append(kept, n)
	}
	m.items = kept
	return c, nil
}

func newNotificationFixture() (*notificationService, *memNotifications, *stubMailer) {
	store := &memNotifications{}
	mail := &stubMailer{}
	profiles := newMemProfiles(
		&models.Profile{UID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"},
		&models.Profile{UID: "staff-1", Role: models.RoleStaff, Email: "staff@example.com"},
		&models.Profile{UID: "u1", Role: models.RoleUser, Email: "u1@example.com", FullName: "Asha"},
		&models.Profile{UID: "u2", Role: models.RoleUser},
	)
	svc := NewNotificationService(store, profiles, mail)
	svc.newID = sequentialIDs()
	tick := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	svc.clockNow = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, store, mail
}

var staffActor = dto.Actor{UID: "staff-1", Role: models.RoleStaff}

func TestNotificationSendSingle(t *testing.T) {
	svc, store, mail := newNotificationFixture()

	res, err := svc.Send(helpers.TestCtx(), staffActor, dto.SendNotificationRequest{
		UserID: "u1", Title: " Reminder ", Message: "Upload Form 16", Email: true,
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Recipients != 1 || res.Emailed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	n := store.items[0]
	if n.UserID != "u1" || n.Title != "Reminder" || n.Kind != models.NotificationManual || n.SenderID != "staff-1" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "u1@example.com" {
		t.Fatalf("email copy not sent: %+v", mail.sent)
	}
}

func TestNotificationBroadcastSkipsAdmins(t *testing.T) {
	svc, store, mail := newNotificationFixture()

	res, err := svc.Send(helpers.TestCtx(), staffActor, dto.SendNotificationRequest{
		Broadcast: true, Title: "Office closed", Message: "Closed on Friday", Email: true,
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Recipients != 3 || store.batchCalls != 1 {
		t.Fatalf("expected one batch for 3 recipients, got %+v (batches %d)", res, store.batchCalls)
	}
	for _, n := range store.items {
		if n.UserID == "admin-1" {
			t.Fatalf("admin should not receive broadcasts")
		}
	}
	// u2 has no email address
	if res.Emailed != 2 || len(mail.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", res.Emailed)
	}
}

func TestNotificationBroadcastFromProfileSummaries(t *testing.T) {
	store := &memNotifications{}
	profiles := newMemProfiles(
		&models.Profile{UID: "u1", Role: models.RoleUser, Email: "u1@example.com", PANNumber: "ABCDE1234F"},
	)
	svc := NewNotificationService(store, profiles, &stubMailer{})
	svc.newID = sequentialIDs()

	res, err := svc.Send(helpers.TestCtx(), staffActor, dto.SendNotificationRequest{
		Broadcast: true, Title: "Office closed", Message: "Closed on Friday",
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Recipients != 1 {
		t.Fatalf("expected 1 recipient, got %+v", res)
	}
}

func TestNotificationSendRules(t *testing.T) {
	svc, _, _ := newNotificationFixture()
	ctx := helpers.TestCtx()

	var forbidden *errs.ForbiddenError
	_, err := svc.Send(ctx, dto.Actor{UID: "u1", Role: models.RoleUser}, dto.SendNotificationRequest{UserID: "u2", Title: "x", Message: "y"})
	if !errors.As(err, &forbidden) {
		t.Fatalf("client send should be forbidden, got %v", err)
	}

	var v *errs.ValidationError
	if _, err := svc.Send(ctx, staffActor, dto.SendNotificationRequest{Title: "x", Message: "y"}); !errors.As(err, &v) {
		t.Fatalf("missing recipient should fail validation, got %v", err)
	}
	if _, err := svc.Send(ctx, staffActor, dto.SendNotificationRequest{UserID: "u1", Title: "  ", Message: "y"}); !errors.As(err, &v) {
		t.Fatalf("blank title should fail validation, got %v", err)
	}

	var nf *errs.NotFoundError
	if _, err := svc.Send(ctx, staffActor, dto.SendNotificationRequest{UserID: "ghost", Title: "x", Message: "y"}); !errors.As(err, &nf) {
		t.Fatalf("unknown recipient should be NotFound, got %v", err)
	}
}

func TestNotificationEmailFailureIsNotFatal(t *testing.T) {
	svc, store, mail := newNotificationFixture()
	mail.err = errors.New("smtp down")

	res, err := svc.Send(helpers.TestCtx(), staffActor, dto.SendNotificationRequest{UserID: "u1", Title: "x", Message: "y", Email: true})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if res.Emailed != 0 || len(store.items) != 1 {
		t.Fatalf("notification should still be stored: %+v", res)
	}
}

func TestNotificationReadFlow(t *testing.T) {
	svc, _, _ := newNotificationFixture()
	ctx := helpers.TestCtx()

	if _, err := svc.NotifyMany(ctx, []string{"u1", "u1", "u2"}, models.NotificationReminder, "t", "m"); err != nil {
		t.Fatalf("NotifyMany error: %v", err)
	}
	list, _ := svc.List(ctx, "u1", false)
	if len(list) != 2 || !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected 2 notifications newest first, got %+v", list)
	}

	if err := svc.MarkRead(ctx, "u2", list[0].NotificationID); err == nil {
		t.Fatalf("another user's notification should not be markable")
	}
	if err := svc.MarkRead(ctx, "u1", list[0].NotificationID); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
	c, _ := svc.UnreadCount(ctx, "u1")
	if c.Count != 1 {
		t.Fatalf("expected 1 unread, got %d", c.Count)
	}
	n, _ := svc.MarkAllRead(ctx, "u1")
	if n != 1 {
		t.Fatalf("expected 1 marked, got %d", n)
	}
	if n, _ := svc.NotifyMany(ctx, nil, models.NotificationReminder, "t", "m"); n != 0 {
		t.Fatalf("empty recipients should be a no-op")
	}
}
