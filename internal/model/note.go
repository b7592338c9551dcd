package model

import "time"

// Note is a titled text entry stored in a book.  Titles are globally
// unique.  OwnerID is not a column; repositories fill it from the book so
// ownership checks do not need a second query.
type Note struct {
	ID        uint64    // notes.id
	BookID    uint64    // notes.book_id
	OwnerID   uint64    // books.user_id of the parent book
	Title     string    // notes.title
	Content   string    // notes.content
	Deleted   bool      // notes.deleted
	CreatedAt time.Time // notes.created_at
	UpdatedAt time.Time // notes.updated_at
}
