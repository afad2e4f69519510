package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/admin_api/internal/models"
)

// adminUserColumns is the canonical select list for admin_users.
const adminUserColumns = `id, email, password_hash, first_name, last_name, role,
	failed_login_count, force_password_reset, password_changed_at, last_login_at,
	created_at, updated_at`

// AdminUserRepository provides data access methods for the admin_users table.
type AdminUserRepository struct {
	db *sqlx.DB
}

// NewAdminUserRepository creates a new AdminUserRepository.
func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// GetByID finds an admin user by numeric id.
func (r *AdminUserRepository) GetByID(id int) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.Get(&user, `
		SELECT `+adminUserColumns+`
		FROM admin_users
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail finds an admin user by email, ignoring case. Uniqueness is
// enforced case-insensitively so lookups must match the same way.
func (r *AdminUserRepository) GetByEmail(email string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.Get(&user, `
		SELECT `+adminUserColumns+`
		FROM admin_users
		WHERE lower(email) = lower($1)
	`, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another record already uses the email,
// ignoring case. excludeID skips the record being updated; pass 0 on
// create. This is a pre-flight check only; the unique index on
// lower(email) remains the authoritative guarantee.
func (r *AdminUserRepository) EmailTaken(email string, excludeID int) (bool, error) {
	var taken bool
	err := r.db.Get(&taken, `
		SELECT EXISTS (
			SELECT 1 FROM admin_users
			WHERE lower(email) = lower($1) AND id <> $2
		)
	`, email, excludeID)
	return taken, err
}

// Create inserts a new admin user.
func (r *AdminUserRepository) Create(user *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (email, password_hash, first_name, last_name, role,
			failed_login_count, force_password_reset, password_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.FailedLoginCount,
		user.ForcePasswordReset,
		user.PasswordChangedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

// Update updates profile fields and the reset flag of an existing user.
func (r *AdminUserRepository) Update(user *models.AdminUser) error {
	query := `
		UPDATE admin_users
		SET email = $1, first_name = $2, last_name = $3, role = $4,
			force_password_reset = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	return r.db.QueryRow(query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.ForcePasswordReset,
		user.ID,
	).Scan(&user.UpdatedAt)
}

// UpdatePassword stores a new password hash, stamps password_changed_at,
// and clears the forced-reset flag in one statement.
func (r *AdminUserRepository) UpdatePassword(id int, passwordHash string, changedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE admin_users
		SET password_hash = $1, password_changed_at = $2,
			force_password_reset = FALSE, updated_at = NOW()
		WHERE id = $3
	`, passwordHash, changedAt, id)
	return err
}

// SetFailedLoginCount stores the failed login counter.
func (r *AdminUserRepository) SetFailedLoginCount(id, count int) error {
	_, err := r.db.Exec(`
		UPDATE admin_users
		SET failed_login_count = $1, updated_at = NOW()
		WHERE id = $2
	`, count, id)
	return err
}

// IncrementFailedLoginCount bumps the counter after a failed login and
// returns the new value.
func (r *AdminUserRepository) IncrementFailedLoginCount(id int) (int, error) {
	var count int
	err := r.db.Get(&count, `
		UPDATE admin_users
		SET failed_login_count = failed_login_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_count
	`, id)
	return count, err
}

// RecordLogin resets the failed login counter and stamps last_login_at
// after a successful authentication.
func (r *AdminUserRepository) RecordLogin(id int, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE admin_users
		SET failed_login_count = 0, last_login_at = $1, updated_at = NOW()
		WHERE id = $2
	`, at, id)
	return err
}

// ListByName retrieves all admin users ordered by last name then first
// name, ascending. This matches the "<last>, <first>" sort key used by
// the admin listing.
func (r *AdminUserRepository) ListByName() ([]*models.AdminUser, error) {
	var users []*models.AdminUser
	err := r.db.Select(&users, `
		SELECT `+adminUserColumns+`
		FROM admin_users
		ORDER BY last_name ASC, first_name ASC
	`)
	return users, err
}

// ListByRole retrieves all admin users holding the given role, in
// insertion order.
func (r *AdminUserRepository) ListByRole(role models.Role) ([]*models.AdminUser, error) {
	var users []*models.AdminUser
	err := r.db.Select(&users, `
		SELECT `+adminUserColumns+`
		FROM admin_users
		WHERE role = $1
		ORDER BY id ASC
	`, role)
	return users, err
}

// Delete removes an admin user.
func (r *AdminUserRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM admin_users WHERE id = $1`, id)
	return err
}

// MarkExpiredPasswords sets the forced-reset flag for accounts whose
// password is older than the rotation policy allows. Returns the number
// of accounts flagged. Used by the password expiry worker.
func (r *AdminUserRepository) MarkExpiredPasswords(now time.Time) (int64, error) {
	cutoff := now.AddDate(0, -models.PasswordMaxAgeMonths, 0)
	res, err := r.db.Exec(`
		UPDATE admin_users
		SET force_password_reset = TRUE, updated_at = NOW()
		WHERE force_password_reset = FALSE AND password_changed_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
