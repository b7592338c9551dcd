package model

import "time"

// Book groups notes and belongs to exactly one user.  Titles are unique
// per owner among non-deleted books.
type Book struct {
	ID          uint64    // books.id
	UserID      uint64    // books.user_id (owner)
	Title       string    // books.title
	Description *string   // books.description (nullable)
	Deleted     bool      // books.deleted
	CreatedAt   time.Time // books.created_at
	UpdatedAt   time.Time // books.updated_at
}
