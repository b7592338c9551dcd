package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
)

type NoteService struct {
	notes NoteStore
	books BookStore
	own   Ownership
	log   logrus.FieldLogger
}

func NewNoteService(notes NoteStore, books BookStore, own Ownership, log logrus.FieldLogger) *NoteService {
	return &NoteService{notes: notes, books: books, own: own, log: log.WithField("component", "note")}
}

// bookFor loads a live book the actor may write into.
func (s *NoteService) bookFor(ctx context.Context, id uint64, actor *model.User) (*model.Book, error) {
	b, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	if err := s.own.Check(actor, b.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

// Create stores a note in one of the actor's books.  Titles are global; a
// soft-deleted note with the same title is restored into the given book.
func (s *NoteService) Create(ctx context.Context, in CreateNoteInput, actor *model.User) (*model.Note, error) {
	s.log.Debug("create")
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		return nil, err
	}
	book, err := s.bookFor(ctx, in.BookID, actor)
	if err != nil {
		return nil, err
	}

	existing, err := s.notes.FindByTitle(ctx, in.Title)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if !existing.Deleted {
			return nil, fmt.Errorf("%w: note title already in use", ErrConflict)
		}
		existing.BookID = book.ID
		existing.OwnerID = book.UserID
		existing.Content = in.Content
		existing.Deleted = false
		if err := s.notes.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	n := &model.Note{BookID: book.ID, OwnerID: book.UserID, Title: in.Title, Content: in.Content}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, storeErr(err, "note")
	}
	return n, nil
}

func (s *NoteService) List(ctx context.Context, actor *model.User) ([]*model.Note, error) {
	if s.own.IsAdmin(actor) {
		return s.notes.List(ctx, nil)
	}
	return s.notes.List(ctx, &actor.ID)
}

func (s *NoteService) Get(ctx context.Context, id uint64, actor *model.User) (*model.Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "note")
	}
	if err := s.own.Check(actor, n.OwnerID); err != nil {
		return nil, err
	}
	return n, nil
}

// Update edits title and content and may move the note to another book the
// actor can write into.
func (s *NoteService) Update(ctx context.Context, in UpdateNoteInput, actor *model.User) (*model.Note, error) {
	s.log.Debug("update")
	if err := validate(in); err != nil {
		return nil, err
	}
	n, err := s.Get(ctx, in.ID, actor)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title != n.Title {
			other, err := s.notes.FindByTitle(ctx, title)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if other != nil && other.ID != n.ID {
				return nil, fmt.Errorf("%w: note title already in use", ErrConflict)
			}
			n.Title = title
		}
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.BookID != nil && *in.BookID != n.BookID {
		book, err := s.bookFor(ctx, *in.BookID, actor)
		if err != nil {
			return nil, err
		}
		n.BookID = book.ID
		n.OwnerID = book.UserID
	}

	if err := s.notes.Update(ctx, n); err != nil {
		return nil, storeErr(err, "note")
	}
	return n, nil
}

func (s *NoteService) Delete(ctx context.Context, id uint64, actor *model.User) error {
	s.log.Debug("delete")
	n, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	return storeErr(s.notes.SoftDelete(ctx, n.ID), "note")
}
