package store

import (
	"context"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type notificationStore struct {
	client *firestore.Client
}

func NewNotificationStore(client *firestore.Client) *notificationStore {
	return &notificationStore{client: client}
}

func (s *notificationStore) collection() *firestore.CollectionRef {
	return s.client.Collection(notificationsCollection)
}

func (s *notificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := s.collection().Doc(n.NotificationID).Set(ctx, n); err != nil {
		return errs.NewDatabaseError("create", "failed to create notification", err)
	}
	return nil
}

// CreateBatch writes many notifications with a BulkWriter (broadcasts, reminder runs).
func (s *notificationStore) CreateBatch(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)
	now := time.Now()

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(ns))
	for _, n := range ns {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		job, err := bw.Set(s.collection().Doc(n.NotificationID), n)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to schedule notification", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			log.Error("failed to write notification", "user_id", ns[i].UserID, "error", err)
			return errs.NewDatabaseError("create", "failed to create notifications", err)
		}
	}
	return nil
}

func (s *notificationStore) List(ctx context.Context, uid string, unreadOnly bool) ([]*models.Notification, error) {
	q := s.collection().Where("userId", "==", uid)
	if unreadOnly {
		q = q.Where("read", "==", false)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list notifications", err)
	}
	out, err := decodeAll[models.Notification](docs, "notification")
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *models.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *notificationStore) CountUnread(ctx context.Context, uid string) (int, error) {
	return count(ctx, s.collection().Where("userId", "==", uid).Where("read", "==", false), "notifications")
}

// MarkRead flags one notification as read. Another user's notification reads as not found.
func (s *notificationStore) MarkRead(ctx context.Context, uid, id string) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection().Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("notification not found")
			}
			return err
		}
		var n models.Notification
		if err := snap.DataTo(&n); err != nil {
			return err
		}
		if n.UserID != uid {
			return errs.NewNotFoundError("notification not found")
		}
		if n.Read {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: "read", Value: true}})
	})
	return txError(err, "update", "failed to mark notification read")
}

func (s *notificationStore) MarkAllRead(ctx context.Context, uid string) (int, error) {
	docs, err := s.collection().Where("userId", "==", uid).Where("read", "==", false).Documents(ctx).GetAll()
	if err != nil {
		return 0, errs.NewDatabaseError("read", "failed to list unread notifications", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, d := range docs {
		job, err := bw.Update(d.Ref, []firestore.Update{{Path: "read", Value: true}})
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("update", "failed to schedule notification update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return 0, errs.NewDatabaseError("update", "failed to mark notifications read", err)
		}
	}
	return len(jobs), nil
}

func (s *notificationStore) DeleteByUser(ctx context.Context, uid string) (int, error) {
	return bulkDelete(ctx, s.client, s.collection().Where("userId", "==", uid), "notifications")
}
