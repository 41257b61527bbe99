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

type taxonomyStore struct {
	client *firestore.Client
}

func NewTaxonomyStore(client *firestore.Client) *taxonomyStore {
	return &taxonomyStore{client: client}
}

func (s *taxonomyStore) categories() *firestore.CollectionRef {
	return s.client.Collection(categoriesCollection)
}

func (s *taxonomyStore) types() *firestore.CollectionRef {
	return s.client.Collection(typesCollection)
}

// ListCategories returns categories ordered by orderNo. Empty appType lists both.
func (s *taxonomyStore) ListCategories(ctx context.Context, appType string) ([]*models.DocumentCategory, error) {
	q := s.categories().Query
	if appType != "" {
		q = q.Where("applicationType", "==", appType)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list categories", err)
	}
	out, err := decodeAll[models.DocumentCategory](docs, "category")
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *models.DocumentCategory) int { return a.OrderNo - b.OrderNo })
	return out, nil
}

// ListTypes returns every type ordered by orderNo.
func (s *taxonomyStore) ListTypes(ctx context.Context) ([]*models.DocumentType, error) {
	docs, err := s.types().Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list document types", err)
	}
	out, err := decodeAll[models.DocumentType](docs, "document type")
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b *models.DocumentType) int { return a.OrderNo - b.OrderNo })
	return out, nil
}

func (s *taxonomyStore) GetCategory(ctx context.Context, id string) (*models.DocumentCategory, error) {
	doc, err := s.categories().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("category not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get category", err)
	}
	var c models.DocumentCategory
	if err := doc.DataTo(&c); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse category data", err)
	}
	return &c, nil
}

func (s *taxonomyStore) GetType(ctx context.Context, id string) (*models.DocumentType, error) {
	doc, err := s.types().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("document type not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get document type", err)
	}
	var t models.DocumentType
	if err := doc.DataTo(&t); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse document type data", err)
	}
	return &t, nil
}

func (s *taxonomyStore) SaveCategory(ctx context.Context, c *models.DocumentCategory) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if _, err := s.categories().Doc(c.CategoryID).Set(ctx, c); err != nil {
		return errs.NewDatabaseError("update", "failed to save category", err)
	}
	return nil
}

func (s *taxonomyStore) SaveType(ctx context.Context, t *models.DocumentType) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if _, err := s.types().Doc(t.TypeID).Set(ctx, t); err != nil {
		return errs.NewDatabaseError("update", "failed to save document type", err)
	}
	return nil
}

// DeleteCategory removes a category that no longer has types. The check and
// delete run in one transaction.
func (s *taxonomyStore) DeleteCategory(ctx context.Context, id string) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.categories().Doc(id)
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("category not found")
			}
			return err
		}
		children, err := tx.Documents(s.types().Where("categoryId", "==", id).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return errs.NewValidationError("category still has document types")
		}
		return tx.Delete(ref)
	})
	return txError(err, "delete", "failed to delete category")
}

func (s *taxonomyStore) DeleteType(ctx context.Context, id string) error {
	if _, err := s.types().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("document type not found")
		}
		return errs.NewDatabaseError("delete", "failed to delete document type", err)
	}
	return nil
}

func (s *taxonomyStore) IsEmpty(ctx context.Context) (bool, error) {
	n, err := count(ctx, s.categories().Query, "categories")
	return n == 0, err
}

// Seed writes a full taxonomy with a BulkWriter.
func (s *taxonomyStore) Seed(ctx context.Context, cats []*models.DocumentCategory, types []*models.DocumentType) error {
	now := time.Now()
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(cats)+len(types))

	for _, c := range cats {
		c.CreatedAt, c.UpdatedAt = now, now
		job, err := bw.Set(s.categories().Doc(c.CategoryID), c)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to schedule category", err)
		}
		jobs = append(jobs, job)
	}
	for _, t := range types {
		t.CreatedAt, t.UpdatedAt = now, now
		job, err := bw.Set(s.types().Doc(t.TypeID), t)
		if err != nil {
			bw.End()
			return errs.NewDatabaseError("create", "failed to schedule document type", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return errs.NewDatabaseError("create", "failed to seed taxonomy", err)
		}
	}
	return nil
}
