package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Validation failure reasons.
const (
	ReasonBlank         = "blank"
	ReasonTooShort      = "too_short"
	ReasonWeak          = "weak"
	ReasonMismatch      = "mismatch"
	ReasonInclusion     = "inclusion"
	ReasonTaken         = "taken"
	ReasonInvalidFormat = "invalid_format"
)

// ValidationError describes a single field-level validation failure.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors aggregates all failures for one record so callers can
// present every problem at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether a failure was recorded for field with reason.
func (e ValidationErrors) Has(field, reason string) bool {
	for _, v := range e {
		if v.Field == field && v.Reason == reason {
			return true
		}
	}
	return false
}

// Local part, "@", domain containing a dot.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmailFormat checks presence and grammar of an email address.
// Case-insensitive uniqueness is checked separately against the store.
func ValidateEmailFormat(email string) ValidationErrors {
	if email == "" {
		return ValidationErrors{{Field: "email", Reason: ReasonBlank}}
	}
	if !emailPattern.MatchString(email) {
		return ValidationErrors{{Field: "email", Reason: ReasonInvalidFormat}}
	}
	return nil
}

// ValidatePassword enforces the admin password policy: minimum length plus
// at least one digit, one lowercase letter, one uppercase letter, and one
// character outside letters and digits. The rule is deliberately strict
// for accounts guarding administrative privilege.
func ValidatePassword(password string) ValidationErrors {
	if password == "" {
		return ValidationErrors{{Field: "password", Reason: ReasonBlank}}
	}
	if len([]rune(password)) < MinPasswordLength {
		return ValidationErrors{{Field: "password", Reason: ReasonTooShort}}
	}

	var hasDigit, hasLower, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasSpecial = true
		}
	}
	if !hasDigit || !hasLower || !hasUpper || !hasSpecial {
		return ValidationErrors{{Field: "password", Reason: ReasonWeak}}
	}
	return nil
}

// ValidatePasswordConfirmation checks that the confirmation matches the
// password when one was supplied.
func ValidatePasswordConfirmation(password, confirmation string) ValidationErrors {
	if confirmation != password {
		return ValidationErrors{{Field: "password_confirmation", Reason: ReasonMismatch}}
	}
	return nil
}

// ValidateName checks a required name field.
func ValidateName(field, value string) ValidationErrors {
	if strings.TrimSpace(value) == "" {
		return ValidationErrors{{Field: field, Reason: ReasonBlank}}
	}
	return nil
}

// ValidateRole checks role membership in the closed enum.
func ValidateRole(role Role) ValidationErrors {
	if !role.Valid() {
		return ValidationErrors{{Field: "role", Reason: ReasonInclusion}}
	}
	return nil
}

// ValidateAdminUser runs all record-level validators in a fixed order and
// returns every failure. password and passwordConfirmation are the
// write-only transient values; pass withPassword=false on updates that do
// not change the password. A nil result means the record is valid apart
// from uniqueness, which only the store can decide.
func ValidateAdminUser(u *AdminUser, password, passwordConfirmation string, withPassword bool) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, ValidateEmailFormat(u.Email)...)
	if withPassword {
		errs = append(errs, ValidatePassword(password)...)
		errs = append(errs, ValidatePasswordConfirmation(password, passwordConfirmation)...)
	}
	errs = append(errs, ValidateName("first_name", u.FirstName)...)
	errs = append(errs, ValidateName("last_name", u.LastName)...)
	errs = append(errs, ValidateRole(u.Role)...)
	if len(errs) == 0 {
		return nil
	}
	return errs
}
