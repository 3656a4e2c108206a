// Package common defines shared constants and errors used across the blog
// backend. Callers should match sentinels with errors.Is and typed errors
// with errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// Store-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Boundary errors.
	ErrValidation = errors.New("validation error")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// MFA errors.
	ErrInvalidMFACode   = errors.New("invalid mfa code")
	ErrMFANotConfigured = errors.New("mfa not configured")
)

// ConflictError reports a uniqueness violation and names the field that
// collided.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrConflict) match any ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewEmailConflict and NewUsernameConflict build the two conflicts the user
// directory distinguishes.
func NewEmailConflict() *ConflictError {
	return &ConflictError{Field: "email", Message: "Email already in use"}
}

func NewUsernameConflict() *ConflictError {
	return &ConflictError{Field: "username", Message: "Username already taken"}
}

// NotFoundError reports an identifier that does not resolve to a record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
