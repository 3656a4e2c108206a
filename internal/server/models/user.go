// Package models defines the records the blog backend persists.
package models

import "time"

// User is an account holder. PasswordHash and MFASecret never leave the
// server in responses.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	DisplayName  string
	Bio          string
	MFAEnabled   bool
	// MFASecret is set while MFA is being configured or is enabled; nil otherwise.
	MFASecret *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser is a signup candidate. Password is plaintext here and hashed by
// the user directory before it reaches the store.
type NewUser struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
	Bio         string
}

// UserPatch lists the mutable user fields. A nil pointer leaves the field
// untouched.
type UserPatch struct {
	Email       *string
	Username    *string
	DisplayName *string
	Bio         *string

	// Password is accepted from callers but never persisted through a patch;
	// password changes have their own flow.
	Password *string

	MFAEnabled     *bool
	MFASecret      *string
	ClearMFASecret bool
}

// Empty reports whether the patch would change no persisted field.
func (p *UserPatch) Empty() bool {
	return p.Email == nil && p.Username == nil && p.DisplayName == nil && p.Bio == nil &&
		p.MFAEnabled == nil && p.MFASecret == nil && !p.ClearMFASecret
}
