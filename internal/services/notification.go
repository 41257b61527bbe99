package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ca-portal/internal/client/mailer"
	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type notificationNSStore interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatch(ctx context.Context, ns []*models.Notification) error
	List(ctx context.Context, uid string, unreadOnly bool) ([]*models.Notification, error)
	CountUnread(ctx context.Context, uid string) (int, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
}

type profileNSStore interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	ListSummaries(ctx context.Context) ([]*models.Profile, error)
}

type notificationService struct {
	notifications notificationNSStore
	profiles      profileNSStore
	mail          mailSender
	clockNow      func() time.Time
	newID         func() string
}

func NewNotificationService(notifications notificationNSStore, profiles profileNSStore, mail mailSender) *notificationService {
	return &notificationService{
		notifications: notifications,
		profiles:      profiles,
		mail:          mail,
		clockNow:      time.Now,
		newID:         uuid.NewString,
	}
}

func (s *notificationService) build(uid, kind, title, message, sender string) *models.Notification {
	return &models.Notification{
		NotificationID: s.newID(),
		UserID:         uid,
		Title:          title,
		Message:        message,
		Kind:           kind,
		SenderID:       sender,
		CreatedAt:      s.clockNow().UTC(),
	}
}

func (s *notificationService) List(ctx context.Context, uid string, unreadOnly bool) ([]*models.Notification, error) {
	return s.notifications.List(ctx, uid, unreadOnly)
}

func (s *notificationService) UnreadCount(ctx context.Context, uid string) (*dto.UnreadCount, error) {
	n, err := s.notifications.CountUnread(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCount{Count: n}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, uid, id string) error {
	return s.notifications.MarkRead(ctx, uid, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, uid string) (int, error) {
	n, err := s.notifications.MarkAllRead(ctx, uid)
	if err != nil {
		return 0, err
	}
	logger.FromContext(ctx).Debug("notifications marked read", "count", n)
	return n, nil
}

// Notify records a system-generated notification for one user.
func (s *notificationService) Notify(ctx context.Context, uid, kind, title, message string) error {
	return s.notifications.Create(ctx, s.build(uid, kind, title, message, ""))
}

// NotifyMany records the same notification for every uid in a single batch.
func (s *notificationService) NotifyMany(ctx context.Context, uids []string, kind, title, message string) (int, error) {
	if len(uids) == 0 {
		return 0, nil
	}
	batch := make([]*models.Notification, 0, len(uids))
	for _, uid := range uids {
		batch = append(batch, s.build(uid, kind, title, message, ""))
	}
	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// Send delivers a manual notification from staff to one user or, with
// Broadcast, to every non-admin profile.
func (s *notificationService) Send(ctx context.Context, actor dto.Actor, req dto.SendNotificationRequest) (*dto.SendResult, error) {
	if !actor.IsStaff() {
		return nil, errs.NewForbiddenError("only staff can send notifications")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var recipients []*models.Profile
	if req.Broadcast {
		all, err := s.profiles.ListSummaries(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			if p.Role != models.RoleAdmin {
				recipients = append(recipients, p)
			}
		}
	} else {
		p, err := s.profiles.Get(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		recipients = []*models.Profile{p}
	}

	log, ctx := logger.With(ctx, "sender", actor.UID)
	result := &dto.SendResult{}
	if len(recipients) == 0 {
		return result, nil
	}

	batch := make([]*models.Notification, 0, len(recipients))
	for _, p := range recipients {
		batch = append(batch, s.build(p.UID, models.NotificationManual, req.Title, req.Message, actor.UID))
	}
	var err error
	if len(batch) == 1 {
		err = s.notifications.Create(ctx, batch[0])
	} else {
		err = s.notifications.CreateBatch(ctx, batch)
	}
	if err != nil {
		return nil, err
	}
	result.Recipients = len(batch)

	if req.Email {
		for _, p := range recipients {
			if p.Email == "" {
				continue
			}
			msg := mailer.Notification(p.Email, p.FullName, req.Title, req.Message)
			if err := s.mail.Send(ctx, msg); err != nil {
				log.Warn("failed to email notification copy", "recipient", p.UID, "error", err)
				continue
			}
			result.Emailed++
		}
	}

	log.Info("manual notification sent", "broadcast", req.Broadcast, "recipients", result.Recipients, "emailed", result.Emailed)
	return result, nil
}
