package store

import (
	"context"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
)

type documentStore struct {
	client *firestore.Client
}

func NewDocumentStore(client *firestore.Client) *documentStore {
	return &documentStore{client: client}
}

func (s *documentStore) collection() *firestore.CollectionRef {
	return s.client.Collection(documentsCollection)
}

// Put stores d. Unless allowMultiple is set, the earliest existing record for
// the same owner, type and financial year is overwritten in place and any other
// records for that slot are deleted. Every displaced record is returned so the
// caller can remove its object. The lookup and writes share one transaction.
func (s *documentStore) Put(ctx context.Context, d *models.Document, allowMultiple bool) ([]*models.Document, error) {
	now := time.Now()
	d.UpdatedAt = now
	id, created := d.DocumentID, d.CreatedAt

	var replaced []*models.Document
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		replaced = nil
		d.DocumentID, d.CreatedAt = id, created
		ref := s.collection().Doc(d.DocumentID)

		var stale []*firestore.DocumentRef
		if !allowMultiple {
			q := s.collection().
				Where("userId", "==", d.UserID).
				Where("typeId", "==", d.TypeID).
				Where("financialYear", "==", d.FinancialYear)
			docs, err := tx.Documents(q).GetAll()
			if err != nil {
				return err
			}
			for _, snap := range docs {
				var prev models.Document
				if err := snap.DataTo(&prev); err != nil {
					return err
				}
				replaced = append(replaced, &prev)
			}
			slices.SortFunc(replaced, func(a, b *models.Document) int {
				return a.CreatedAt.Compare(b.CreatedAt)
			})
			if len(replaced) > 0 {
				keep := replaced[0]
				ref = s.collection().Doc(keep.DocumentID)
				d.DocumentID = keep.DocumentID
				d.CreatedAt = keep.CreatedAt
				for _, extra := range replaced[1:] {
					stale = append(stale, s.collection().Doc(extra.DocumentID))
				}
			}
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if err := tx.Set(ref, d); err != nil {
			return err
		}
		for _, r := range stale {
			if err := tx.Delete(r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, txError(err, "create", "failed to store document")
	}
	return replaced, nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("document not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get document", err)
	}
	var d models.Document
	if err := doc.DataTo(&d); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse document data", err)
	}
	return &d, nil
}

// Transition reads the document, lets mutate change it and writes it back
// atomically. An error from mutate aborts the write and is returned as is.
func (s *documentStore) Transition(ctx context.Context, id string, mutate func(d *models.Document) error) (*models.Document, error) {
	var out models.Document
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.collection().Doc(id)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("document not found")
			}
			return err
		}
		var d models.Document
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		if err := mutate(&d); err != nil {
			return err
		}
		d.UpdatedAt = time.Now()
		out = d
		return tx.Set(ref, &d)
	})
	if err != nil {
		return nil, txError(err, "update", "failed to update document")
	}
	return &out, nil
}

// List returns documents matching filter, newest first. An empty uid lists every owner.
func (s *documentStore) List(ctx context.Context, uid string, filter dto.DocumentFilter) ([]*models.Document, error) {
	q := s.collection().Query
	if uid != "" {
		q = q.Where("userId", "==", uid)
	}
	if filter.ApplicationType != "" {
		q = q.Where("applicationType", "==", filter.ApplicationType)
	}
	if filter.FinancialYear != "" {
		q = q.Where("financialYear", "==", filter.FinancialYear)
	}
	if filter.CategoryID != "" {
		q = q.Where("categoryId", "==", filter.CategoryID)
	}
	if filter.TypeID != "" {
		q = q.Where("typeId", "==", filter.TypeID)
	}
	if filter.Status != "" {
		q = q.Where("status", "==", filter.Status)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list documents", err)
	}
	out, err := decodeAll[models.Document](docs, "document")
	if err != nil {
		return nil, err
	}
	// sorted here so equality filters need no composite index
	slices.SortFunc(out, func(a, b *models.Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *documentStore) CountByStatus(ctx context.Context, st string) (int, error) {
	return count(ctx, s.collection().Where("status", "==", st), "documents")
}

func (s *documentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection().Doc(id).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete document", err)
	}
	return nil
}

func (s *documentStore) DeleteByUser(ctx context.Context, uid string) (int, error) {
	return bulkDelete(ctx, s.client, s.collection().Where("userId", "==", uid), "documents")
}
