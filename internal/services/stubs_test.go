package services

import (
	"context"
	"sort"

	"github.com/GregMSThompson/ca-portal/internal/client/mailer"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
)

// memProfiles is an in-memory profile store shared by the service tests.
type memProfiles struct {
	byUID       map[string]*models.Profile
	createErr   error
	createCalls int
	updateCalls int
	deleted     []string
}

func newMemProfiles(ps ...*models.Profile) *memProfiles {
	m := &memProfiles{byUID: map[string]*models.Profile{}}
	for _, p := range ps {
		m.byUID[p.UID] = p
	}
	return m
}

func (m *memProfiles) Create(_ context.Context, p *models.Profile) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byUID[p.UID]; ok {
		return errs.NewAlreadyExistsError("profile already exists")
	}
	cp := *p
	m.byUID[p.UID] = &cp
	return nil
}

func (m *memProfiles) Get(_ context.Context, uid string) (*models.Profile, error) {
	p, ok := m.byUID[uid]
	if !ok {
		return nil, errs.NewNotFoundError("profile not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Update(_ context.Context, p *models.Profile) error {
	m.updateCalls++
	cp := *p
	m.byUID[p.UID] = &cp
	return nil
}

func (m *memProfiles) UpdateRole(_ context.Context, uid, role string) error {
	p, ok := m.byUID[uid]
	if !ok {
		return errs.NewNotFoundError("profile not found")
	}
	p.Role = role
	return nil
}

func (m *memProfiles) ListSummaries(_ context.Context) ([]*models.Profile, error) {
	out := m.all()
	for _, p := range out {
		p.PANNumber, p.AadhaarNumber = "", ""
	}
	return out, nil
}

func (m *memProfiles) all() []*models.Profile {
	out := make([]*models.Profile, 0, len(m.byUID))
	for _, p := range m.byUID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

func (m *memProfiles) ListByRole(ctx context.Context, role string) ([]*models.Profile, error) {
	all, _ := m.ListSummaries(ctx)
	out := all[:0]
	for _, p := range all {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProfiles) CountByRole(_ context.Context, role, entityType string) (int, error) {
	n := 0
	for _, p := range m.byUID {
		if p.Role == role && (entityType == "" || p.EntityType == entityType) {
			n++
		}
	}
	return n, nil
}

func (m *memProfiles) Delete(_ context.Context, uid string) error {
	delete(m.byUID, uid)
	m.deleted = append(m.deleted, uid)
	return nil
}

type stubMailer struct {
	sent []mailer.Message
	err  error
}

func (s *stubMailer) Send(_ context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type notifyCall struct {
	uid, kind, title, message string
}

type stubNotifier struct {
	calls []notifyCall
	err   error
}

func (s *stubNotifier) Notify(_ context.Context, uid, kind, title, message string) error {
	s.calls = append(s.calls, notifyCall{uid, kind, title, message})
	return s.err
}

func (s *stubNotifier) NotifyMany(_ context.Context, uids []string, kind, title, message string) (int, error) {
	for _, uid := range uids {
		s.calls = append(s.calls, notifyCall{uid, kind, title, message})
	}
	return len(uids), s.err
}
