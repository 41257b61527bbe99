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
)

type applicationStore struct {
	client *firestore.Client
}

func NewApplicationStore(client *firestore.Client) *applicationStore {
	return &applicationStore{client: client}
}

func (s *applicationStore) collection() *firestore.CollectionRef {
	return s.client.Collection(applicationsCollection)
}

// CreateUnique stores app unless the owner already has a submitted or approved
// application of the same type and financial year.
func (s *applicationStore) CreateUnique(ctx context.Context, app *models.Application) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		q := s.collection().
			Where("userId", "==", app.UserID).
			Where("type", "==", app.Type).
			Where("financialYear", "==", app.FinancialYear).
			Where("status", "in", []string{models.ApplicationSubmitted, models.ApplicationApproved}).
			Limit(1)
		docs, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return errs.NewAlreadyExistsError("an application for this type and financial year is already open")
		}
		return tx.Create(s.collection().Doc(app.ApplicationID), app)
	})
	return txError(err, "create", "failed to create application")
}

func (s *applicationStore) Get(ctx context.Context, id string) (*models.Application, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("application not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get application", err)
	}
	var a models.Application
	if err := doc.DataTo(&a); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse application data", err)
	}
	return &a, nil
}

func (s *applicationStore) Transition(ctx context.Context, id string, mutate func(a *models.Application) error) (*models.Application, error) {
	var out models.Application
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection().Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("application not found")
			}
			return err
		}
		var a models.Application
		if err := snap.DataTo(&a); err != nil {
			return err
		}
		if err := mutate(&a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now()
		out = a
		return tx.Set(ref, &a)
	})
	if err != nil {
		return nil, txError(err, "update", "failed to update application")
	}
	return &out, nil
}

// List returns applications newest first. Empty uid or financialYear disables that filter.
func (s *applicationStore) List(ctx context.Context, uid, financialYear string) ([]*models.Application, error) {
	q := s.collection().Query
	if uid != "" {
		q = q.Where("userId", "==", uid)
	}
	if financialYear != "" {
		q = q.Where("financialYear", "==", financialYear)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list applications", err)
	}
	out, err := decodeAll[models.Application](docs, "application")
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *models.Application) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// Exists reports whether the owner has any application of the type and year.
func (s *applicationStore) Exists(ctx context.Context, uid, appType, financialYear string) (bool, error) {
	n, err := count(ctx, s.collection().
		Where("userId", "==", uid).
		Where("type", "==", appType).
		Where("financialYear", "==", financialYear), "applications")
	return n > 0, err
}

func (s *applicationStore) CountByStatus(ctx context.Context, st string) (int, error) {
	return count(ctx, s.collection().Where("status", "==", st), "applications")
}

func (s *applicationStore) DeleteByUser(ctx context.Context, uid string) (int, error) {
	return bulkDelete(ctx, s.client, s.collection().Where("userId", "==", uid), "applications")
}
