package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/notes-api/internal/model"
)

// NoteRepo reads and writes notes.  Every read joins the parent book so the
// owner id travels with the note.
type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

const noteSelect = "SELECT n.id, n.book_id, b.user_id, n.title, n.content, n.deleted, n.created_at, n.updated_at FROM notes n JOIN books b ON b.id = n.book_id"

func scanNote(s rowScanner) (*model.Note, error) {
	var n model.Note
	if err := s.Scan(&n.ID, &n.BookID, &n.OwnerID, &n.Title, &n.Content, &n.Deleted, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a note and sets n.ID.  Titles are globally unique, a clash
// yields ErrDuplicate.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	const q = "INSERT INTO notes (book_id, title, content) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, n.BookID, n.Title, n.Content)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// GetByID fetches a live note.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (*model.Note, error) {
	const q = noteSelect + " WHERE n.id = ? AND n.deleted = 0"
	n, err := scanNote(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return n, err
}

// FindByTitle returns the note holding title, deleted or not.
func (r *NoteRepo) FindByTitle(ctx context.Context, title string) (*model.Note, error) {
	const q = noteSelect + " WHERE n.title = ? LIMIT 1"
	n, err := scanNote(r.db.QueryRowContext(ctx, q, title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return n, err
}

// List returns live notes ordered by id; a nil owner lists all notes.
func (r *NoteRepo) List(ctx context.Context, ownerID *uint64) ([]*model.Note, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == nil {
		rows, err = r.db.QueryContext(ctx, noteSelect+" WHERE n.deleted = 0 ORDER BY n.id")
	} else {
		rows, err = r.db.QueryContext(ctx, noteSelect+" WHERE b.user_id = ? AND n.deleted = 0 ORDER BY n.id", *ownerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes book, title, content and the deleted flag; it is also the
// restore path for a soft-deleted note.
func (r *NoteRepo) Update(ctx context.Context, n *model.Note) error {
	const q = "UPDATE notes SET book_id = ?, title = ?, content = ?, deleted = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, n.BookID, n.Title, n.Content, n.Deleted, n.ID)
	return translate(err)
}

// SoftDelete marks the note deleted.
func (r *NoteRepo) SoftDelete(ctx context.Context, id uint64) error {
	const q = "UPDATE notes SET deleted = 1 WHERE id = ? AND deleted = 0"
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
