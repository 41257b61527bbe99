package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GregMSThompson/ca-portal/internal/client/mailer"
	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

// identityAdmin is the Firebase Admin surface used for account management.
type identityAdmin interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	UpdatePassword(ctx context.Context, uid, password string) error
	RevokeSessions(ctx context.Context, uid string) error
	PasswordResetLink(ctx context.Context, email, continueURL string) (string, error)
}

// identitySessions covers the password flows that only exist on the REST API.
type identitySessions interface {
	SignInWithPassword(ctx context.Context, email, password string) (*dto.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*dto.Session, error)
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
}

type profileASStore interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, uid string) (*models.Profile, error)
}

type unreadCounter interface {
	CountUnread(ctx context.Context, uid string) (int, error)
}

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type authService struct {
	admin            identityAdmin
	sessions         identitySessions
	profiles         profileASStore
	notifications    unreadCounter
	mail             mailSender
	passwordResetURL string
	clockNow         func() time.Time
}

func NewAuthService(admin identityAdmin, sessions identitySessions, profiles profileASStore, notifications unreadCounter, mail mailSender, passwordResetURL string) *authService {
	return &authService{
		admin:            admin,
		sessions:         sessions,
		profiles:         profiles,
		notifications:    notifications,
		mail:             mail,
		passwordResetURL: passwordResetURL,
		clockNow:         time.Now,
	}
}

// Signup creates the auth account and its profile. The account is removed
// again when the profile cannot be written.
func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*models.Profile, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	uid, err := s.admin.CreateUser(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return nil, err
	}
	log, ctx := logger.With(ctx, "uid", uid)

	now := s.clockNow()
	profile := &models.Profile{
		UID:        uid,
		Email:      req.Email,
		FullName:   req.FullName,
		Role:       models.RoleUser,
		EntityType: models.EntityClient,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		log.Error("profile creation failed, removing auth account", "error", err)
		if delErr := s.admin.DeleteUser(ctx, uid); delErr != nil {
			log.Error("failed to remove orphaned auth account", "error", delErr)
		}
		return nil, err
	}

	log.Info("user signed up")
	return profile, nil
}

// Login signs in with email and password and attaches the profile role so the
// client can route staff to the dashboard.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sess, err := s.sessions.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	log, ctx := logger.With(ctx, "uid", sess.UID)

	profile, err := s.profiles.Get(ctx, sess.UID)
	var notFound *errs.NotFoundError
	switch {
	case errors.As(err, &notFound):
		// account created outside signup (console, emulator import)
		now := s.clockNow()
		profile = &models.Profile{
			UID:        sess.UID,
			Email:      sess.Email,
			Role:       models.RoleUser,
			EntityType: models.EntityClient,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, err
		}
		log.Warn("created missing profile on login")
	case err != nil:
		return nil, err
	}

	sess.Role = profile.Role
	log.Info("user logged in", "role", sess.Role)
	return sess, nil
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	sess, err := s.sessions.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if profile, err := s.profiles.Get(ctx, sess.UID); err == nil {
		sess.Role = profile.Role
		sess.Email = profile.Email
	}
	return sess, nil
}

func (s *authService) Logout(ctx context.Context, uid string) error {
	if err := s.admin.RevokeSessions(ctx, uid); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("sessions revoked")
	return nil
}

// ForgotPassword emails a reset link. Unknown addresses succeed silently.
func (s *authService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	link, err := s.admin.PasswordResetLink(ctx, req.Email, s.passwordResetURL)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		log.Warn("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.mail.Send(ctx, mailer.PasswordReset(req.Email, "", link)); err != nil {
		return err
	}
	log.Info("password reset email sent")
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	return s.sessions.ConfirmPasswordReset(ctx, req.OobCode, req.NewPassword)
}

func (s *authService) ChangePassword(ctx context.Context, uid string, req dto.ChangePasswordRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if err := s.admin.UpdatePassword(ctx, uid, req.NewPassword); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("password changed")
	return nil
}

// Me returns the caller's profile and the header sections their role can see.
func (s *authService) Me(ctx context.Context, uid string) (*dto.Me, error) {
	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &dto.Me{
		Profile: profile,
		Nav: dto.Nav{
			Sections:    navSections(profile.Role),
			UnreadCount: unread,
		},
	}, nil
}

func navSections(role string) []string {
	switch role {
	case models.RoleAdmin, models.RoleStaff:
		return []string{dto.NavDashboard, dto.NavNotifications, dto.NavAdmin}
	default:
		return []string{dto.NavDashboard, dto.NavDocuments, dto.NavNotifications}
	}
}
