package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type taxonomyTSStore interface {
	ListCategories(ctx context.Context, appType string) ([]*models.DocumentCategory, error)
	ListTypes(ctx context.Context) ([]*models.DocumentType, error)
	GetCategory(ctx context.Context, id string) (*models.DocumentCategory, error)
	GetType(ctx context.Context, id string) (*models.DocumentType, error)
	SaveCategory(ctx context.Context, c *models.DocumentCategory) error
	SaveType(ctx context.Context, t *models.DocumentType) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteType(ctx context.Context, id string) error
	IsEmpty(ctx context.Context) (bool, error)
	Seed(ctx context.Context, cats []*models.DocumentCategory, types []*models.DocumentType) error
}

type taxonomyService struct {
	store taxonomyTSStore
	newID func() string
}

func NewTaxonomyService(store taxonomyTSStore) *taxonomyService {
	return &taxonomyService{store: store, newID: uuid.NewString}
}

// Tree returns the categories of an application type with their types, both
// ordered by orderNo. Client views (includeInactive false) drop inactive entries
// and categories left without types.
func (s *taxonomyService) Tree(ctx context.Context, appType string, includeInactive bool) ([]dto.CategoryNode, error) {
	if appType != "" && !models.ValidApplicationType(appType) {
		return nil, errs.NewValidationError("application type must be loan or tax")
	}
	cats, err := s.store.ListCategories(ctx, appType)
	if err != nil {
		return nil, err
	}
	types, err := s.store.ListTypes(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]*models.DocumentType, len(cats))
	for _, t := range types {
		if !includeInactive && !t.IsActive {
			continue
		}
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}

	nodes := make([]dto.CategoryNode, 0, len(cats))
	for _, c := range cats {
		if !includeInactive && !c.IsActive {
			continue
		}
		children := byCategory[c.CategoryID]
		if !includeInactive && len(children) == 0 {
			continue
		}
		if children == nil {
			children = []*models.DocumentType{}
		}
		nodes = append(nodes, dto.CategoryNode{DocumentCategory: c, Types: children})
	}
	return nodes, nil
}

func (s *taxonomyService) GetType(ctx context.Context, id string) (*models.DocumentType, error) {
	return s.store.GetType(ctx, id)
}

func (s *taxonomyService) GetCategory(ctx context.Context, id string) (*models.DocumentCategory, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *taxonomyService) CreateCategory(ctx context.Context, req dto.CategoryRequest) (*models.DocumentCategory, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	c := &models.DocumentCategory{
		CategoryID:      s.newID(),
		Name:            req.Name,
		ApplicationType: req.ApplicationType,
		OrderNo:         req.OrderNo,
		IsActive:        helpers.ValueOr(req.IsActive, true),
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("category created", "category_id", c.CategoryID, "name", c.Name)
	return c, nil
}

func (s *taxonomyService) UpdateCategory(ctx context.Context, id string, req dto.CategoryRequest) (*models.DocumentCategory, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.ApplicationType = req.ApplicationType
	c.OrderNo = req.OrderNo
	c.IsActive = helpers.ValueOr(req.IsActive, c.IsActive)
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("category updated", "category_id", id)
	return c, nil
}

func (s *taxonomyService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("category deleted", "category_id", id)
	return nil
}

func (s *taxonomyService) CreateType(ctx context.Context, req dto.TypeRequest) (*models.DocumentType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, categoryRefError(err)
	}
	t := &models.DocumentType{
		TypeID:        s.newID(),
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   strings.TrimSpace(req.Description),
		OrderNo:       req.OrderNo,
		IsRequired:    req.IsRequired,
		IsActive:      helpers.ValueOr(req.IsActive, true),
		AllowMultiple: req.AllowMultiple,
	}
	if err := s.store.SaveType(ctx, t); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("document type created", "type_id", t.TypeID, "category_id", t.CategoryID)
	return t, nil
}

func (s *taxonomyService) UpdateType(ctx context.Context, id string, req dto.TypeRequest) (*models.DocumentType, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	t, err := s.store.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != t.CategoryID {
		if _, err := s.store.GetCategory(ctx, req.CategoryID); err != nil {
			return nil, categoryRefError(err)
		}
	}
	t.CategoryID = req.CategoryID
	t.Name = req.Name
	t.Description = strings.TrimSpace(req.Description)
	t.OrderNo = req.OrderNo
	t.IsRequired = req.IsRequired
	t.IsActive = helpers.ValueOr(req.IsActive, t.IsActive)
	t.AllowMultiple = req.AllowMultiple
	if err := s.store.SaveType(ctx, t); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("document type updated", "type_id", id)
	return t, nil
}

func (s *taxonomyService) DeleteType(ctx context.Context, id string) error {
	if err := s.store.DeleteType(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("document type deleted", "type_id", id)
	return nil
}

// Seed installs the default loan and tax checklists into an empty taxonomy.
func (s *taxonomyService) Seed(ctx context.Context) (dto.SeedResult, error) {
	empty, err := s.store.IsEmpty(ctx)
	if err != nil {
		return dto.SeedResult{}, err
	}
	if !empty {
		return dto.SeedResult{}, errs.NewAlreadyExistsError("taxonomy already has categories")
	}

	cats, types := defaultTaxonomy(s.newID)
	if err := s.store.Seed(ctx, cats, types); err != nil {
		return dto.SeedResult{}, err
	}
	logger.FromContext(ctx).Info("taxonomy seeded", "categories", len(cats), "types", len(types))
	return dto.SeedResult{Categories: len(cats), Types: len(types)}, nil
}

// categoryRefError reports a dangling category reference as bad input.
func categoryRefError(err error) error {
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		return errs.NewFieldValidationError("category does not exist", map[string]string{"categoryId": "exists"})
	}
	return err
}
