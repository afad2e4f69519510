package models

import (
	"fmt"
	"time"
)

// Policy constants for admin accounts. Tests pass their own clock to
// MustChangePassword instead of manipulating wall time.
const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// FailedLoginLimit is the number of failed login attempts at which an
	// account is considered disabled.
	FailedLoginLimit = 5

	// PasswordMaxAgeMonths is the age after which a password change is
	// forced even without the explicit reset flag.
	PasswordMaxAgeMonths = 9
)

// Role is the closed set of admin roles.
type Role string

const (
	RoleSysadmin  Role = "sysadmin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleSysadmin || r == RoleModerator
}

// Capability is a named permission granted to roles. Authorization checks
// go through capabilities rather than role comparisons so new roles can be
// granted a capability without touching its callers.
type Capability string

const (
	// CapTakeContentDown allows removing published content.
	CapTakeContentDown Capability = "take_content_down"
	// CapManageUsers allows creating admin accounts and changing roles.
	CapManageUsers Capability = "manage_users"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleSysadmin: {
		CapTakeContentDown: true,
		CapManageUsers:     true,
	},
	RoleModerator: {
		CapTakeContentDown: true,
	},
}

// AdminUser represents an administrative account for the panel.
// The password hash is never serialized.
type AdminUser struct {
	ID                 int        `db:"id" json:"id"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	FirstName          string     `db:"first_name" json:"firstName"`
	LastName           string     `db:"last_name" json:"lastName"`
	Role               Role       `db:"role" json:"role"`
	FailedLoginCount   int        `db:"failed_login_count" json:"failedLoginCount"`
	ForcePasswordReset bool       `db:"force_password_reset" json:"forcePasswordReset"`
	PasswordChangedAt  time.Time  `db:"password_changed_at" json:"passwordChangedAt"`
	LastLoginAt        *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewAdminUser returns an account with creation defaults applied: a fresh
// account always requires a password change before first use.
func NewAdminUser() *AdminUser {
	return &AdminUser{
		Role:               RoleModerator,
		ForcePasswordReset: true,
	}
}

// IsSysadmin reports whether the account holds the sysadmin role.
func (u *AdminUser) IsSysadmin() bool {
	return u.Role == RoleSysadmin
}

// IsModerator reports whether the account holds the moderator role.
func (u *AdminUser) IsModerator() bool {
	return u.Role == RoleModerator
}

// Can reports whether the account's role grants the capability.
func (u *AdminUser) Can(c Capability) bool {
	return roleCapabilities[u.Role][c]
}

// CanTakeContentDown reports whether the account may remove content.
// Both roles currently hold this capability.
func (u *AdminUser) CanTakeContentDown() bool {
	return u.Can(CapTakeContentDown)
}

// MustChangePassword reports whether the account must change its password
// before further use: either the explicit reset flag is set, or the
// password is older than the rotation policy allows. A zero
// PasswordChangedAt counts as expired.
func (u *AdminUser) MustChangePassword(now time.Time) bool {
	if u.ForcePasswordReset {
		return true
	}
	if u.PasswordChangedAt.IsZero() {
		return true
	}
	return now.After(u.PasswordChangedAt.AddDate(0, PasswordMaxAgeMonths, 0))
}

// IsAccountDisabled reports whether the account is locked out. Uses >= so
// the locked state is stable under further failed attempts.
func (u *AdminUser) IsAccountDisabled() bool {
	return u.FailedLoginCount >= FailedLoginLimit
}

// SetAccountDisabled locks or unlocks the account. Disabling normalizes
// the counter to exactly the limit, never a higher pre-existing value, so
// a single reset predictably clears it. The caller persists the change.
func (u *AdminUser) SetAccountDisabled(disabled bool) {
	if disabled {
		u.FailedLoginCount = FailedLoginLimit
	} else {
		u.FailedLoginCount = 0
	}
}

// FullNameSortKey returns "<last>, <first>", the key used for the default
// administrative listing order.
func (u *AdminUser) FullNameSortKey() string {
	return fmt.Sprintf("%s, %s", u.LastName, u.FirstName)
}
