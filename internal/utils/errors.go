package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountLocked      = errors.New("ACCOUNT_LOCKED")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrTokenRevoked       = errors.New("TOKEN_REVOKED")
	ErrUserNotFound       = errors.New("USER_NOT_FOUND")
	ErrEmailTaken         = errors.New("EMAIL_TAKEN")
	ErrPasswordMismatch   = errors.New("PASSWORD_MISMATCH")
)
