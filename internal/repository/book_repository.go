package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/notes-api/internal/model"
)

// BookRepo encapsulates all database queries related to books.
type BookRepo struct {
	db *sql.DB
}

func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{db: db}
}

const bookColumns = "id, user_id, title, description, deleted, created_at, updated_at"

func scanBook(s rowScanner) (*model.Book, error) {
	var (
		b    model.Book
		desc sql.NullString
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.Title, &desc, &b.Deleted, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		b.Description = &desc.String
	}
	return &b, nil
}

// Create inserts a new book and sets b.ID.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	const q = "INSERT INTO books (user_id, title, description) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, b.UserID, b.Title, nullable(b.Description))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a live book.  It returns ErrNotFound for missing or
// soft-deleted rows.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (*model.Book, error) {
	const q = "SELECT " + bookColumns + " FROM books WHERE id = ? AND deleted = 0"
	b, err := scanBook(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// FindByTitle looks up a book of the given owner by title, including
// soft-deleted ones.  A live match is preferred over deleted ones.
func (r *BookRepo) FindByTitle(ctx context.Context, userID uint64, title string) (*model.Book, error) {
	const q = "SELECT " + bookColumns + " FROM books WHERE user_id = ? AND title = ? ORDER BY deleted ASC, id DESC LIMIT 1"
	b, err := scanBook(r.db.QueryRowContext(ctx, q, userID, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns live books ordered by id.  A nil owner lists every user's books.
func (r *BookRepo) List(ctx context.Context, ownerID *uint64) ([]*model.Book, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == nil {
		rows, err = r.db.QueryContext(ctx, "SELECT "+bookColumns+" FROM books WHERE deleted = 0 ORDER BY id")
	} else {
		rows, err = r.db.QueryContext(ctx, "SELECT "+bookColumns+" FROM books WHERE user_id = ? AND deleted = 0 ORDER BY id", *ownerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes owner, title, description and the deleted flag, so it
// doubles as the restore path for a soft-deleted book.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	const q = "UPDATE books SET user_id = ?, title = ?, description = ?, deleted = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, b.UserID, b.Title, nullable(b.Description), b.Deleted, b.ID)
	return translate(err)
}

// CountActiveNotes counts live notes stored in the book.
func (r *BookRepo) CountActiveNotes(ctx context.Context, bookID uint64) (int, error) {
	const q = "SELECT COUNT(*) FROM notes WHERE book_id = ? AND deleted = 0"
	var n int
	if err := r.db.QueryRowContext(ctx, q, bookID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SoftDelete marks the book deleted.
func (r *BookRepo) SoftDelete(ctx context.Context, id uint64) error {
	const q = "UPDATE books SET deleted = 1 WHERE id = ? AND deleted = 0"
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
