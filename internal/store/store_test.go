package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/helpers"
)

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// uniq keeps test runs against a shared emulator independent.
func uniq(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

type prefixCipher struct{}

func (prefixCipher) Encrypt(_ context.Context, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return "enc:" + s, nil
}

func (prefixCipher) Decrypt(_ context.Context, s string) (string, error) {
	return strings.TrimPrefix(s, "enc:"), nil
}

func TestProfileStoreEncryptsKYCWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewProfileStore(client, prefixCipher{})

	uid := uniq("uid")
	p := &models.Profile{UID: uid, Email: "a@example.com", Role: models.RoleUser, EntityType: models.EntityClient, PANNumber: "ABCDE1234F"}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	raw, err := client.Collection(profilesCollection).Doc(uid).Get(ctx)
	if err != nil {
		t.Fatalf("raw get error: %v", err)
	}
	if got := raw.Data()["panNumber"]; got != "enc:ABCDE1234F" {
		t.Fatalf("stored PAN = %v, want ciphertext", got)
	}

	got, err := s.Get(ctx, uid)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.PANNumber != "ABCDE1234F" {
		t.Fatalf("decrypted PAN = %q", got.PANNumber)
	}

	var exists *errs.AlreadyExistsError
	if err := s.Create(ctx, p); !errors.As(err, &exists) {
		t.Fatalf("second Create error = %v, want AlreadyExistsError", err)
	}

	var notFound *errs.NotFoundError
	if _, err := s.Get(ctx, uniq("missing")); !errors.As(err, &notFound) {
		t.Fatalf("Get missing error = %v, want NotFoundError", err)
	}
}

func TestProfileStoreUpdateKeepsRoleWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewProfileStore(client, prefixCipher{})

	uid := uniq("uid")
	p := &models.Profile{UID: uid, Email: "a@example.com", Role: models.RoleStaff, EntityType: models.EntityClient}
	if err := s.Create(ctx, p); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	stale, err := s.Get(ctx, uid)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}

	// an admin demotes the user while their profile edit is in flight
	if err := s.UpdateRole(ctx, uid, models.RoleUser); err != nil {
		t.Fatalf("UpdateRole error: %v", err)
	}
	stale.FullName = "Asha Rao"
	stale.PANNumber = "ABCDE1234F"
	if err := s.Update(ctx, stale); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := s.Get(ctx, uid)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Role != models.RoleUser {
		t.Fatalf("role = %q, want %q", got.Role, models.RoleUser)
	}
	if got.FullName != "Asha Rao" || got.PANNumber != "ABCDE1234F" {
		t.Fatalf("editable fields not written: %+v", got)
	}

	summaries, err := s.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries error: %v", err)
	}
	for _, sp := range summaries {
		if sp.UID == uid && sp.PANNumber != "" {
			t.Fatalf("ListSummaries exposed PAN %q", sp.PANNumber)
		}
	}

	var notFound *errs.NotFoundError
	if err := s.Update(ctx, &models.Profile{UID: uniq("missing")}); !errors.As(err, &notFound) {
		t.Fatalf("Update missing error = %v, want NotFoundError", err)
	}
}

func TestDocumentStorePutReplacesWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewDocumentStore(client)
	uid := uniq("owner")

	first := &models.Document{DocumentID: uniq("d1"), UserID: uid, TypeID: "pan", FinancialYear: "2024-25", ObjectKey: "k1", Status: models.DocumentApproved}
	if prev, err := s.Put(ctx, first, false); err != nil || prev != nil {
		t.Fatalf("first Put = %v, %v", prev, err)
	}

	second := &models.Document{DocumentID: uniq("d2"), UserID: uid, TypeID: "pan", FinancialYear: "2024-25", ObjectKey: "k2", Status: models.DocumentPending}
	prev, err := s.Put(ctx, second, false)
	if err != nil {
		t.Fatalf("second Put error: %v", err)
	}
	if len(prev) != 1 || prev[0].ObjectKey != "k1" {
		t.Fatalf("expected replaced document with key k1, got %+v", prev)
	}
	if second.DocumentID != first.DocumentID {
		t.Fatalf("replacement should keep id %s, got %s", first.DocumentID, second.DocumentID)
	}

	docs, err := s.List(ctx, uid, dto.DocumentFilter{FinancialYear: "2024-25"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(docs) != 1 || docs[0].ObjectKey != "k2" || docs[0].Status != models.DocumentPending {
		t.Fatalf("unexpected documents after replace: %+v", docs)
	}

	// a different year is a separate slot
	other := &models.Document{DocumentID: uniq("d3"), UserID: uid, TypeID: "pan", FinancialYear: "2023-24", ObjectKey: "k3"}
	if prev, err := s.Put(ctx, other, false); err != nil || prev != nil {
		t.Fatalf("other-year Put = %v, %v", prev, err)
	}

	if n, err := s.DeleteByUser(ctx, uid); err != nil || n != 2 {
		t.Fatalf("DeleteByUser = %d, %v; want 2", n, err)
	}
}

func TestDocumentStorePutCollapsesDuplicatesWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewDocumentStore(client)
	uid := uniq("owner")
	older := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)

	// two records for one single-slot key, as left behind by an older writer
	for i, key := range []string{"k1", "k2"} {
		d := &models.Document{DocumentID: uniq(key), UserID: uid, TypeID: "pan", FinancialYear: "2024-25", ObjectKey: key, CreatedAt: older.Add(time.Duration(i) * time.Hour)}
		if _, err := client.Collection(documentsCollection).Doc(d.DocumentID).Set(ctx, d); err != nil {
			t.Fatalf("seed error: %v", err)
		}
	}

	next := &models.Document{DocumentID: uniq("d3"), UserID: uid, TypeID: "pan", FinancialYear: "2024-25", ObjectKey: "k3", Status: models.DocumentPending}
	prev, err := s.Put(ctx, next, false)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if len(prev) != 2 || prev[0].ObjectKey != "k1" || prev[1].ObjectKey != "k2" {
		t.Fatalf("expected both records displaced, got %+v", prev)
	}
	if next.DocumentID != prev[0].DocumentID || !next.CreatedAt.Equal(older) {
		t.Fatalf("replacement should take the earliest slot, got %s at %v", next.DocumentID, next.CreatedAt)
	}

	docs, err := s.List(ctx, uid, dto.DocumentFilter{FinancialYear: "2024-25"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(docs) != 1 || docs[0].ObjectKey != "k3" {
		t.Fatalf("expected a single record for the slot, got %+v", docs)
	}
	if _, err := s.DeleteByUser(ctx, uid); err != nil {
		t.Fatalf("DeleteByUser error: %v", err)
	}
}

func TestDocumentStoreTransitionWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewDocumentStore(client)

	d := &models.Document{DocumentID: uniq("doc"), UserID: uniq("u"), TypeID: "t", FinancialYear: "2024-25", Status: models.DocumentPending}
	if _, err := s.Put(ctx, d, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	sentinel := errs.NewValidationError("not pending")
	_, err := s.Transition(ctx, d.DocumentID, func(*models.Document) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("Transition should surface mutate error unchanged, got %v", err)
	}

	got, err := s.Transition(ctx, d.DocumentID, func(doc *models.Document) error {
		doc.Status = models.DocumentApproved
		return nil
	})
	if err != nil || got.Status != models.DocumentApproved {
		t.Fatalf("Transition = %+v, %v", got, err)
	}
}

func TestApplicationStoreCreateUniqueWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewApplicationStore(client)
	uid := uniq("u")

	a := &models.Application{ApplicationID: uniq("a1"), UserID: uid, Type: models.ApplicationTax, FinancialYear: "2024-25", Status: models.ApplicationSubmitted}
	if err := s.CreateUnique(ctx, a); err != nil {
		t.Fatalf("CreateUnique error: %v", err)
	}

	b := &models.Application{ApplicationID: uniq("a2"), UserID: uid, Type: models.ApplicationTax, FinancialYear: "2024-25", Status: models.ApplicationSubmitted}
	var exists *errs.AlreadyExistsError
	if err := s.CreateUnique(ctx, b); !errors.As(err, &exists) {
		t.Fatalf("duplicate CreateUnique error = %v, want AlreadyExistsError", err)
	}

	if _, err := s.Transition(ctx, a.ApplicationID, func(app *models.Application) error {
		app.Status = models.ApplicationRejected
		return nil
	}); err != nil {
		t.Fatalf("Transition error: %v", err)
	}
	if err := s.CreateUnique(ctx, b); err != nil {
		t.Fatalf("CreateUnique after rejection error: %v", err)
	}

	ok, err := s.Exists(ctx, uid, models.ApplicationTax, "2024-25")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
}

func TestNotificationStoreWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewNotificationStore(client)
	uid := uniq("u")

	ns := []*models.Notification{
		{NotificationID: uniq("n1"), UserID: uid, Title: "one"},
		{NotificationID: uniq("n2"), UserID: uid, Title: "two"},
	}
	if err := s.CreateBatch(ctx, ns); err != nil {
		t.Fatalf("CreateBatch error: %v", err)
	}

	var notFound *errs.NotFoundError
	if err := s.MarkRead(ctx, "someone-else", ns[0].NotificationID); !errors.As(err, &notFound) {
		t.Fatalf("MarkRead by non-owner = %v, want NotFoundError", err)
	}
	if err := s.MarkRead(ctx, uid, ns[0].NotificationID); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}
	if n, err := s.CountUnread(ctx, uid); err != nil || n != 1 {
		t.Fatalf("CountUnread = %d, %v; want 1", n, err)
	}
	if n, err := s.MarkAllRead(ctx, uid); err != nil || n != 1 {
		t.Fatalf("MarkAllRead = %d, %v; want 1", n, err)
	}
	unread, err := s.List(ctx, uid, true)
	if err != nil || len(unread) != 0 {
		t.Fatalf("unread list = %v, %v", unread, err)
	}
}

func TestTaxonomyStoreDeleteCategoryWithTypesWithEmulator(t *testing.T) {
	client := newEmulatorClient(t)
	ctx := helpers.TestCtx()
	s := NewTaxonomyStore(client)

	cat := &models.DocumentCategory{CategoryID: uniq("cat"), Name: "KYC", ApplicationType: models.ApplicationLoan, IsActive: true}
	typ := &models.DocumentType{TypeID: uniq("type"), CategoryID: cat.CategoryID, Name: "PAN", IsActive: true}
	if err := s.Seed(ctx, []*models.DocumentCategory{cat}, []*models.DocumentType{typ}); err != nil {
		t.Fatalf("Seed error: %v", err)
	}

	var validation *errs.ValidationError
	if err := s.DeleteCategory(ctx, cat.CategoryID); !errors.As(err, &validation) {
		t.Fatalf("DeleteCategory with types = %v, want ValidationError", err)
	}
	if err := s.DeleteType(ctx, typ.TypeID); err != nil {
		t.Fatalf("DeleteType error: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.CategoryID); err != nil {
		t.Fatalf("DeleteCategory error: %v", err)
	}

	var notFound *errs.NotFoundError
	if err := s.DeleteType(ctx, typ.TypeID); !errors.As(err, &notFound) {
		t.Fatalf("DeleteType twice = %v, want NotFoundError", err)
	}
}

func TestTxErrorPassesDomainErrors(t *testing.T) {
	v := errs.NewValidationError("bad")
	if got := txError(v, "update", "x"); got != error(v) {
		t.Fatalf("txError changed a validation error: %v", got)
	}
	var dbErr *errs.DatabaseError
	if got := txError(errors.New("boom"), "update", "x"); !errors.As(got, &dbErr) || dbErr.Operation != "update" {
		t.Fatalf("txError should wrap unknown errors, got %v", got)
	}
	if txError(nil, "update", "x") != nil {
		t.Fatalf("txError(nil) should be nil")
	}
}
