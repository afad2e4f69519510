package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/admin_api/internal/cache"
	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/repository"
	"github.com/GTDGit/admin_api/internal/utils"
)

// AdminAuthService authenticates admin users and manages their credentials.
// Lockout is consulted before the password check so a locked account stays
// rejected even with valid credentials.
type AdminAuthService struct {
	adminRepo  *repository.AdminUserRepository
	tokenCache *cache.TokenCache
	now        func() time.Time
}

// NewAdminAuthService creates a new AdminAuthService. tokenCache may be nil,
// in which case logout revocation is disabled.
func NewAdminAuthService(adminRepo *repository.AdminUserRepository, tokenCache *cache.TokenCache) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo, tokenCache: tokenCache, now: time.Now}
}

// SetClock overrides the time source. Used by tests.
func (s *AdminAuthService) SetClock(now func() time.Time) {
	s.now = now
}

// LoginResult carries the issued token and the password-rotation signal the
// admin frontend acts on.
type LoginResult struct {
	Token              string            `json:"token"`
	MustChangePassword bool              `json:"mustChangePassword"`
	User               *models.AdminUser `json:"user"`
}

// Login verifies credentials and issues a JWT. Every failed password check
// increments the failed login counter; reaching the limit disables the
// account until an administrator re-enables it.
func (s *AdminAuthService) Login(email, password string) (*LoginResult, error) {
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		}
		return nil, utils.ErrInvalidCredentials
	}

	if user.IsAccountDisabled() {
		log.Warn().Str("email", email).Int("failed_login_count", user.FailedLoginCount).Msg("Account is locked")
		return nil, utils.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		count, incErr := s.adminRepo.IncrementFailedLoginCount(user.ID)
		if incErr != nil {
			log.Error().Err(incErr).Int("user_id", user.ID).Msg("Failed to record failed login")
		} else if count >= models.FailedLoginLimit {
			log.Warn().Str("email", email).Int("failed_login_count", count).Msg("Account locked after repeated failures")
		}
		return nil, utils.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.adminRepo.RecordLogin(user.ID, now); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to record login")
	}
	user.FailedLoginCount = 0
	user.LastLoginAt = &now

	token, err := utils.GenerateJWT(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("Login successful")
	return &LoginResult{
		Token:              token,
		MustChangePassword: user.MustChangePassword(now),
		User:               user,
	}, nil
}

// ChangePassword rotates a user's password after verifying the current one.
// The new password must pass the full strength policy. On success the
// forced-reset flag is cleared and password_changed_at is stamped.
func (s *AdminAuthService) ChangePassword(userID int, current, newPassword, confirmation string) error {
	user, err := s.adminRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return utils.ErrPasswordMismatch
	}

	var errs models.ValidationErrors
	errs = append(errs, models.ValidatePassword(newPassword)...)
	errs = append(errs, models.ValidatePasswordConfirmation(newPassword, confirmation)...)
	if len(errs) > 0 {
		return errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.adminRepo.UpdatePassword(user.ID, string(hash), s.now()); err != nil {
		return err
	}

	log.Info().Int("user_id", user.ID).Msg("Password changed")
	return nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AdminAuthService) Logout(ctx context.Context, claims *utils.JWTClaims) error {
	if s.tokenCache == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.tokenCache.Revoke(ctx, claims.ID, ttl)
}

// MustChangePassword reports whether the account needs a password rotation
// right now. Exposed for the profile endpoint.
func (s *AdminAuthService) MustChangePassword(user *models.AdminUser) bool {
	return user.MustChangePassword(s.now())
}
