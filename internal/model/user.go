package model

import (
	"strings"
	"time"
)

// Account status values stored in users.status.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// User represents an application user record as stored in the
// `users` table, together with the roles joined from `users_roles`.
// There are no json tags here; handlers build their own response views so
// that PasswordHash and RefreshTokenHash never leave the process.
//
// Fields:
//
//	ID                – primary key identifier of the user.
//	Email             – unique email address, stored trimmed.
//	PasswordHash      – bcrypt hash of the password.
//	RefreshTokenHash  – bcrypt hash of the current refresh token; nil means no session.
//	SessionsValidFrom – tokens issued before this instant are rejected; set when the account is reclaimed.
//	IsEmailConfirmed  – flips to true exactly once.
//	Deleted           – soft-delete flag; deleted users are invisible to lookups.
type User struct {
	ID                uint64     // users.id
	Email             string     // users.email
	Firstname         string     // users.firstname
	Lastname          string     // users.lastname
	ProfilePicture    *string    // users.profile_picture (nullable)
	PasswordHash      string     // users.password_hash
	RefreshTokenHash  *string    // users.refresh_token_hash (nullable)
	SessionsValidFrom *time.Time // users.sessions_valid_from (nullable)
	IsEmailConfirmed  bool       // users.is_email_confirmed
	Status            string     // users.status
	Deleted           bool       // users.deleted
	Roles             []Role     // users_roles -> roles
	CreatedAt         time.Time  // users.created_at
	UpdatedAt         time.Time  // users.updated_at
}

// HasRole reports whether the user holds a role with the given name.
// Role names are compared case-insensitively.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the user's roles in stored order.
func (u *User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}
	return out
}

// TokenIssuedInSession reports whether a token issued at iat belongs to the
// current holder of the account.  JWT iat has second precision, so the
// comparison is made on whole seconds.
func (u *User) TokenIssuedInSession(iat time.Time) bool {
	if u.SessionsValidFrom == nil {
		return true
	}
	return !iat.Truncate(time.Second).Before(u.SessionsValidFrom.Truncate(time.Second))
}
