package model

import "time"

// Role represents a row in the `roles` table.
type Role struct {
	ID        uint64    // roles.id
	Name      string    // roles.name (unique)
	CreatedAt time.Time // roles.created_at
	UpdatedAt time.Time // roles.updated_at
}
