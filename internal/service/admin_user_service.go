package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/repository"
	"github.com/GTDGit/admin_api/internal/utils"
)

// AdminUserService handles admin account provisioning and management.
// Validation failures are returned as models.ValidationErrors carrying
// every problem at once; an invalid record is never persisted.
type AdminUserService struct {
	adminRepo *repository.AdminUserRepository
	now       func() time.Time
}

// NewAdminUserService constructs an AdminUserService.
func NewAdminUserService(adminRepo *repository.AdminUserRepository) *AdminUserService {
	return &AdminUserService{adminRepo: adminRepo, now: time.Now}
}

// SetClock overrides the time source. Used by tests.
func (s *AdminUserService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateAdminRequest represents the request to provision a new admin account.
type CreateAdminRequest struct {
	Email                string      `json:"email"`
	Password             string      `json:"password"`
	PasswordConfirmation string      `json:"passwordConfirmation"`
	FirstName            string      `json:"firstName"`
	LastName             string      `json:"lastName"`
	Role                 models.Role `json:"role"`
}

// UpdateAdminRequest represents the request to update an admin account.
// Empty fields are left unchanged.
type UpdateAdminRequest struct {
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

// Create validates and persists a new admin account. New accounts always
// start with the forced password reset flag set so the provisioned
// password must be rotated on first login.
func (s *AdminUserService) Create(req *CreateAdminRequest) (*models.AdminUser, error) {
	user := models.NewAdminUser()
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role

	errs := models.ValidateAdminUser(user, req.Password, req.PasswordConfirmation, true)

	// Uniqueness pre-flight. The unique index on lower(email) remains the
	// authoritative check against concurrent creations.
	if !errs.Has("email", models.ReasonBlank) && !errs.Has("email", models.ReasonInvalidFormat) {
		taken, err := s.adminRepo.EmailTaken(req.Email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			errs = append(errs, models.ValidationError{Field: "email", Reason: models.ReasonTaken})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hash)
	user.PasswordChangedAt = s.now()

	if err := s.adminRepo.Create(user); err != nil {
		return nil, err
	}

	log.Info().Int("user_id", user.ID).Str("email", user.Email).Str("role", string(user.Role)).Msg("Admin account created")
	return user, nil
}

// Get retrieves an admin account by id.
func (s *AdminUserService) Get(id int) (*models.AdminUser, error) {
	user, err := s.adminRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update applies profile changes to an existing account, re-running the
// full validation contract before persisting.
func (s *AdminUserService) Update(id int, req *UpdateAdminRequest) (*models.AdminUser, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Role != "" {
		user.Role = req.Role
	}

	errs := models.ValidateAdminUser(user, "", "", false)
	if !errs.Has("email", models.ReasonBlank) && !errs.Has("email", models.ReasonInvalidFormat) {
		taken, err := s.adminRepo.EmailTaken(user.Email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs = append(errs, models.ValidationError{Field: "email", Reason: models.ReasonTaken})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := s.adminRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole reassigns an account's role.
func (s *AdminUserService) ChangeRole(id int, role models.Role) (*models.AdminUser, error) {
	if !role.Valid() {
		return nil, models.ValidationErrors{{Field: "role", Reason: models.ReasonInclusion}}
	}
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.adminRepo.Update(user); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", id).Str("role", string(role)).Msg("Admin role changed")
	return user, nil
}

// SetAccountDisabled locks or unlocks an account. There is no automatic
// transition out of the locked state; this explicit administrative action
// is the only way back in.
func (s *AdminUserService) SetAccountDisabled(id int, disabled bool) (*models.AdminUser, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	user.SetAccountDisabled(disabled)
	if err := s.adminRepo.SetFailedLoginCount(user.ID, user.FailedLoginCount); err != nil {
		return nil, err
	}
	log.Info().Int("user_id", id).Bool("disabled", disabled).Msg("Admin account status changed")
	return user, nil
}

// Delete removes an admin account.
func (s *AdminUserService) Delete(id int) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.adminRepo.Delete(id)
}

// ListByName retrieves all accounts ordered by last name then first name.
func (s *AdminUserService) ListByName() ([]*models.AdminUser, error) {
	return s.adminRepo.ListByName()
}

// ListByRole retrieves the accounts holding the given role.
func (s *AdminUserService) ListByRole(role models.Role) ([]*models.AdminUser, error) {
	if !role.Valid() {
		return nil, models.ValidationErrors{{Field: "role", Reason: models.ReasonInclusion}}
	}
	return s.adminRepo.ListByRole(role)
}
