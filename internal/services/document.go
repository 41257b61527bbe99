package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/fiscal"
	"github.com/GregMSThompson/ca-portal/internal/imaging"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type documentDSStore interface {
	Put(ctx context.Context, d *models.Document, allowMultiple bool) ([]*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Transition(ctx context.Context, id string, mutate func(d *models.Document) error) (*models.Document, error)
	List(ctx context.Context, uid string, filter dto.DocumentFilter) ([]*models.Document, error)
	Delete(ctx context.Context, id string) error
}

type taxonomyReader interface {
	GetType(ctx context.Context, id string) (*models.DocumentType, error)
	GetCategory(ctx context.Context, id string) (*models.DocumentCategory, error)
	Tree(ctx context.Context, appType string, includeInactive bool) ([]dto.CategoryNode, error)
}

type profileReader interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

// objectStore is implemented by the Cloud Storage and MinIO adapters.
type objectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	SignedURL(ctx context.Context, key string, ttl time.Duration, fileName string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

type notifier interface {
	Notify(ctx context.Context, uid, kind, title, message string) error
}

type DocumentOptions struct {
	MaxUploadBytes    int64
	ImageMaxDimension int
	SignedURLTTL      time.Duration
	Location          *time.Location
}

var allowedUploadTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}

type documentService struct {
	docs     documentDSStore
	taxonomy taxonomyReader
	profiles profileReader
	objects  objectStore
	notify   notifier
	opts     DocumentOptions
	clockNow func() time.Time
	newID    func() string
}

func NewDocumentService(docs documentDSStore, taxonomy taxonomyReader, profiles profileReader, objects objectStore, notify notifier, opts DocumentOptions) *documentService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &documentService{
		docs:     docs,
		taxonomy: taxonomy,
		profiles: profiles,
		objects:  objects,
		notify:   notify,
		opts:     opts,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

func (s *documentService) now() time.Time {
	return s.clockNow().In(s.opts.Location)
}

// Upload validates, compresses and stores a file, then records it. Unless the
// type allows multiple files, an earlier upload for the same type and year is
// replaced and its object removed.
func (s *documentService) Upload(ctx context.Context, uid string, req dto.UploadDocument) (*models.Document, error) {
	log, ctx := logger.With(ctx, "type_id", req.TypeID)

	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !profile.ProfileCompleted {
		return nil, errs.NewValidationError("complete your profile before uploading documents")
	}

	if req.TypeID == "" {
		return nil, errs.NewFieldValidationError("document type is required", map[string]string{"typeId": "required"})
	}
	typ, err := s.taxonomy.GetType(ctx, req.TypeID)
	if err != nil {
		return nil, err
	}
	cat, err := s.taxonomy.GetCategory(ctx, typ.CategoryID)
	if err != nil {
		return nil, err
	}
	if !typ.IsActive || !cat.IsActive {
		return nil, errs.NewValidationError("this document type is not accepting uploads")
	}

	now := s.now()
	fy, err := fiscal.ParseOrCurrent(req.FinancialYear, now)
	if err != nil {
		return nil, errs.NewFieldValidationError(err.Error(), map[string]string{"financialYear": "format"})
	}

	data, contentType, fileName, err := s.prepare(req.Content, req.FileName)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s/%s/%d-%s", uid, cat.CategoryID, typ.TypeID, fy, now.UnixMilli(), fileName)
	if err := s.objects.Upload(ctx, key, contentType, data); err != nil {
		return nil, err
	}

	doc := &models.Document{
		DocumentID:      s.newID(),
		UserID:          uid,
		ApplicationType: cat.ApplicationType,
		CategoryID:      cat.CategoryID,
		TypeID:          typ.TypeID,
		TypeName:        typ.Name,
		FileName:        fileName,
		ObjectKey:       key,
		ContentType:     contentType,
		Size:            int64(len(data)),
		Status:          models.DocumentPending,
		FinancialYear:   fy.String(),
	}
	replaced, err := s.docs.Put(ctx, doc, typ.AllowMultiple)
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			log.Error("failed to remove object after record write failure", "key", key, "error", delErr)
		}
		return nil, err
	}

	for _, prev := range replaced {
		if prev.ObjectKey == key {
			continue
		}
		if err := s.objects.Delete(ctx, prev.ObjectKey); err != nil {
			log.Warn("failed to remove replaced object", "key", prev.ObjectKey, "error", err)
		}
	}

	log.Info("document uploaded",
		"document_id", doc.DocumentID,
		"financial_year", doc.FinancialYear,
		"size", doc.Size,
		"replaced", len(replaced))
	return doc, nil
}

// prepare sniffs the content type, shrinks images and enforces the size limit.
func (s *documentService) prepare(content []byte, name string) ([]byte, string, string, error) {
	if len(content) == 0 {
		return nil, "", "", errs.NewFieldValidationError("file is empty", map[string]string{"file": "required"})
	}

	mt := mimetype.Detect(content)
	if !mimetype.EqualsAny(mt.String(), allowedUploadTypes...) {
		return nil, "", "", errs.NewFieldValidationError(
			fmt.Sprintf("unsupported file type %s, upload a PDF or an image", mt.String()),
			map[string]string{"file": "type"})
	}
	contentType := mt.String()
	fileName := sanitizeFileName(name)

	if imaging.Compressible(contentType) {
		out, err := imaging.Compress(content, s.opts.ImageMaxDimension, s.opts.MaxUploadBytes)
		if errors.Is(err, imaging.ErrTooLarge) {
			return nil, "", "", errs.NewFieldValidationError("image is too large even after compression", map[string]string{"file": "size"})
		}
		if errors.Is(err, imaging.ErrTooManyPixels) {
			return nil, "", "", errs.NewFieldValidationError(
				fmt.Sprintf("image dimensions exceed %d megapixels", imaging.MaxPixels/1_000_000),
				map[string]string{"file": "size"})
		}
		if err != nil {
			return nil, "", "", errs.NewFieldValidationError("image could not be read", map[string]string{"file": "type"})
		}
		content = out
		contentType = "image/jpeg"
		fileName = strings.TrimSuffix(fileName, path.Ext(fileName)) + ".jpg"
	}

	if int64(len(content)) > s.opts.MaxUploadBytes {
		return nil, "", "", errs.NewFieldValidationError(
			fmt.Sprintf("file exceeds the %d KB limit", s.opts.MaxUploadBytes/1024),
			map[string]string{"file": "size"})
	}
	return content, contentType, fileName, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 100 {
		ext := path.Ext(name)
		name = name[:100-len(ext)] + ext
	}
	if name == "" {
		return "file"
	}
	return name
}

func (s *documentService) List(ctx context.Context, uid string, filter dto.DocumentFilter) ([]*models.Document, error) {
	if filter.ApplicationType != "" && !models.ValidApplicationType(filter.ApplicationType) {
		return nil, errs.NewValidationError("application type must be loan or tax")
	}
	if filter.FinancialYear != "" {
		if _, err := fiscal.Parse(filter.FinancialYear); err != nil {
			return nil, errs.NewFieldValidationError(err.Error(), map[string]string{"financialYear": "format"})
		}
	}
	return s.docs.List(ctx, uid, filter)
}

// Checklist groups the caller's documents under the active taxonomy and lists
// the required types that still have no upload.
func (s *documentService) Checklist(ctx context.Context, uid, appType, financialYear string) (*dto.Checklist, error) {
	if !models.ValidApplicationType(appType) {
		return nil, errs.NewValidationError("application type must be loan or tax")
	}
	fy, err := fiscal.ParseOrCurrent(financialYear, s.now())
	if err != nil {
		return nil, errs.NewFieldValidationError(err.Error(), map[string]string{"financialYear": "format"})
	}

	tree, err := s.taxonomy.Tree(ctx, appType, false)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, uid, dto.DocumentFilter{ApplicationType: appType, FinancialYear: fy.String()})
	if err != nil {
		return nil, err
	}

	byType := make(map[string][]*models.Document)
	for _, d := range docs {
		byType[d.TypeID] = append(byType[d.TypeID], d)
	}

	out := &dto.Checklist{
		ApplicationType: appType,
		FinancialYear:   fy.String(),
		Categories:      make([]dto.ChecklistCategory, 0, len(tree)),
		MissingRequired: []string{},
	}
	for _, node := range tree {
		cc := dto.ChecklistCategory{DocumentCategory: node.DocumentCategory, Types: make([]dto.ChecklistType, 0, len(node.Types))}
		for _, t := range node.Types {
			uploaded := byType[t.TypeID]
			if uploaded == nil {
				uploaded = []*models.Document{}
			}
			if t.IsRequired && len(uploaded) == 0 {
				out.MissingRequired = append(out.MissingRequired, t.Name)
			}
			cc.Types = append(cc.Types, dto.ChecklistType{DocumentType: t, Documents: uploaded})
		}
		out.Categories = append(out.Categories, cc)
	}
	out.Complete = len(out.MissingRequired) == 0
	return out, nil
}

// viewable loads a document the actor may read. Other owners' documents read
// as missing for clients.
func (s *documentService) viewable(ctx context.Context, actor dto.Actor, id string) (*models.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != actor.UID && !actor.IsStaff() {
		return nil, errs.NewNotFoundError("document not found")
	}
	return doc, nil
}

func (s *documentService) SignedURL(ctx context.Context, actor dto.Actor, id string) (*dto.SignedURL, error) {
	doc, err := s.viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	u, err := s.objects.SignedURL(ctx, doc.ObjectKey, s.opts.SignedURLTTL, doc.FileName)
	if err != nil {
		return nil, err
	}
	return &dto.SignedURL{URL: u, ExpiresAt: s.clockNow().Add(s.opts.SignedURLTTL)}, nil
}

func (s *documentService) Download(ctx context.Context, actor dto.Actor, id string) (*dto.Download, error) {
	doc, err := s.viewable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	body, size, err := s.objects.Open(ctx, doc.ObjectKey)
	if err != nil {
		return nil, err
	}
	return &dto.Download{Body: body, ContentType: doc.ContentType, FileName: doc.FileName, Size: size}, nil
}

// Delete removes an owner's document. Approved documents are kept.
func (s *documentService) Delete(ctx context.Context, uid, id string) error {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.UserID != uid {
		return errs.NewNotFoundError("document not found")
	}
	if doc.Status == models.DocumentApproved {
		return errs.NewValidationError("approved documents cannot be deleted")
	}

	if err := s.objects.Delete(ctx, doc.ObjectKey); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("document deleted", "document_id", id)
	return nil
}

// Review approves or rejects a pending document and notifies its owner.
func (s *documentService) Review(ctx context.Context, actor dto.Actor, id string, req dto.ReviewRequest) (*models.Document, error) {
	if !actor.IsStaff() {
		return nil, errs.NewForbiddenError("only staff can review documents")
	}
	req.Note = strings.TrimSpace(req.Note)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.docs.Transition(ctx, id, func(d *models.Document) error {
		if d.Status != models.DocumentPending {
			return errs.NewValidationError(fmt.Sprintf("document is already %s", d.Status))
		}
		d.Status = req.Status
		d.ReviewNote = req.Note
		d.ReviewedBy = actor.UID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("document reviewed", "document_id", id, "status", doc.Status, "owner", doc.UserID)

	title := "Document approved"
	message := fmt.Sprintf("Your %s for FY %s has been approved.", doc.TypeName, doc.FinancialYear)
	if doc.Status == models.DocumentRejected {
		title = "Document rejected"
		message = fmt.Sprintf("Your %s for FY %s was rejected. Please upload it again.", doc.TypeName, doc.FinancialYear)
	}
	if doc.ReviewNote != "" {
		message += " Note: " + doc.ReviewNote
	}
	if err := s.notify.Notify(ctx, doc.UserID, models.NotificationReview, title, message); err != nil {
		log.Warn("failed to notify document owner", "document_id", id, "error", err)
	}
	return doc, nil
}
