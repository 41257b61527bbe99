package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
)

// fieldCipher encrypts KYC identifiers at rest.
type fieldCipher interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

type profileStore struct {
	client *firestore.Client
	cipher fieldCipher
}

func NewProfileStore(client *firestore.Client, cipher fieldCipher) *profileStore {
	return &profileStore{client: client, cipher: cipher}
}

func (s *profileStore) collection() *firestore.CollectionRef {
	return s.client.Collection(profilesCollection)
}

func (s *profileStore) seal(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	sealed := *p
	var err error
	if sealed.PANNumber, err = s.cipher.Encrypt(ctx, p.PANNumber); err != nil {
		return nil, err
	}
	if sealed.AadhaarNumber, err = s.cipher.Encrypt(ctx, p.AadhaarNumber); err != nil {
		return nil, err
	}
	return &sealed, nil
}

func (s *profileStore) open(ctx context.Context, p *models.Profile) error {
	var err error
	if p.PANNumber, err = s.cipher.Decrypt(ctx, p.PANNumber); err != nil {
		return err
	}
	if p.AadhaarNumber, err = s.cipher.Decrypt(ctx, p.AadhaarNumber); err != nil {
		return err
	}
	return nil
}

func (s *profileStore) Create(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	sealed, err := s.seal(ctx, p)
	if err != nil {
		return err
	}
	if _, err := s.collection().Doc(p.UID).Create(ctx, sealed); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("profile already exists")
		}
		return errs.NewDatabaseError("create", "failed to create profile", err)
	}
	return nil
}

func (s *profileStore) Get(ctx context.Context, uid string) (*models.Profile, error) {
	doc, err := s.collection().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("profile not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get profile", err)
	}
	var p models.Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse profile data", err)
	}
	if err := s.open(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update writes the client-editable fields only. Role, email and createdAt are
// left to their own writers so a stale read cannot roll them back.
func (s *profileStore) Update(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now()
	sealed, err := s.seal(ctx, p)
	if err != nil {
		return err
	}
	_, err = s.collection().Doc(p.UID).Update(ctx, []firestore.Update{
		{Path: "fullName", Value: sealed.FullName},
		{Path: "mobile", Value: sealed.Mobile},
		{Path: "entityType", Value: sealed.EntityType},
		{Path: "panNumber", Value: sealed.PANNumber},
		{Path: "aadhaarNumber", Value: sealed.AadhaarNumber},
		{Path: "companyName", Value: sealed.CompanyName},
		{Path: "gstin", Value: sealed.GSTIN},
		{Path: "cin", Value: sealed.CIN},
		{Path: "profileCompleted", Value: sealed.ProfileCompleted},
		{Path: "updatedAt", Value: sealed.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("profile not found")
		}
		return errs.NewDatabaseError("update", "failed to update profile", err)
	}
	return nil
}

// ListSummaries returns every profile, newest first, without decrypting KYC fields.
func (s *profileStore) ListSummaries(ctx context.Context) ([]*models.Profile, error) {
	docs, err := s.collection().OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list profiles", err)
	}
	profiles, err := decodeAll[models.Profile](docs, "profile")
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.PANNumber, p.AadhaarNumber = "", ""
	}
	return profiles, nil
}

func (s *profileStore) UpdateRole(ctx context.Context, uid, role string) error {
	_, err := s.collection().Doc(uid).Update(ctx, []firestore.Update{
		{Path: "role", Value: role},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("profile not found")
		}
		return errs.NewDatabaseError("update", "failed to update role", err)
	}
	return nil
}

// ListByRole returns profiles with the given role without decrypting KYC fields.
func (s *profileStore) ListByRole(ctx context.Context, role string) ([]*models.Profile, error) {
	docs, err := s.collection().Where("role", "==", role).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list profiles by role", err)
	}
	profiles, err := decodeAll[models.Profile](docs, "profile")
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.PANNumber, p.AadhaarNumber = "", ""
	}
	return profiles, nil
}

func (s *profileStore) CountByRole(ctx context.Context, role, entityType string) (int, error) {
	q := s.collection().Where("role", "==", role)
	if entityType != "" {
		q = q.Where("entityType", "==", entityType)
	}
	return count(ctx, q, "profiles")
}

func (s *profileStore) Delete(ctx context.Context, uid string) error {
	if _, err := s.collection().Doc(uid).Delete(ctx); err != nil {
		return errs.NewDatabaseError("delete", "failed to delete profile", err)
	}
	return nil
}
