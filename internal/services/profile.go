package services

import (
	"context"
	"strings"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

type profilePSStore interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
}

type profileService struct {
	profiles profilePSStore
}

func NewProfileService(profiles profilePSStore) *profileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) Get(ctx context.Context, uid string) (*models.Profile, error) {
	return s.profiles.Get(ctx, uid)
}

// Update replaces the editable fields and recomputes profileCompleted.
func (s *profileService) Update(ctx context.Context, uid string, req dto.UpdateProfileRequest) (*models.Profile, error) {
	normalizeProfileRequest(&req)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	p.FullName = req.FullName
	p.Mobile = req.Mobile
	p.PANNumber = req.PANNumber
	p.AadhaarNumber = req.AadhaarNumber
	p.EntityType = req.EntityType
	p.CompanyName = req.CompanyName
	p.GSTIN = req.GSTIN
	p.CIN = req.CIN
	wasComplete := p.ProfileCompleted
	p.ProfileCompleted = p.Complete()

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("profile updated", "entity_type", p.EntityType, "completed", p.ProfileCompleted)
	if p.ProfileCompleted && !wasComplete {
		log.Info("profile completed")
	}
	return p, nil
}

func normalizeProfileRequest(req *dto.UpdateProfileRequest) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Mobile = strings.ReplaceAll(strings.TrimSpace(req.Mobile), " ", "")
	req.PANNumber = strings.ToUpper(strings.TrimSpace(req.PANNumber))
	req.AadhaarNumber = strings.ReplaceAll(strings.TrimSpace(req.AadhaarNumber), " ", "")
	req.EntityType = strings.ToLower(strings.TrimSpace(req.EntityType))
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.GSTIN = strings.ToUpper(strings.TrimSpace(req.GSTIN))
	req.CIN = strings.ToUpper(strings.TrimSpace(req.CIN))
}
