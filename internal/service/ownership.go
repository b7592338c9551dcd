package service

import (
	"fmt"

	"github.com/iliyamo/notes-api/internal/model"
)

// Ownership implements the admin-or-owner rule shared by books and notes.
type Ownership struct {
	AdminRole string
}

// IsAdmin reports whether u holds the admin role (case-insensitive).
func (o Ownership) IsAdmin(u *model.User) bool {
	return u != nil && u.HasRole(o.AdminRole)
}

// Check allows actor to act on a resource owned by ownerID.
func (o Ownership) Check(actor *model.User, ownerID uint64) error {
	if actor == nil {
		return fmt.Errorf("%w: no actor", ErrForbidden)
	}
	if o.IsAdmin(actor) || actor.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: resource belongs to another user", ErrForbidden)
}
