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

type BookService struct {
	books BookStore
	users UserStore
	own   Ownership
	log   logrus.FieldLogger
}

func NewBookService(books BookStore, users UserStore, own Ownership, log logrus.FieldLogger) *BookService {
	return &BookService{books: books, users: users, own: own, log: log.WithField("component", "book")}
}

// Create stores a book for the actor, or for in.UserID when the actor is an
// admin.  A soft-deleted book with the same title is restored instead.
func (s *BookService) Create(ctx context.Context, in CreateBookInput, actor *model.User) (*model.Book, error) {
	s.log.Debug("create")
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in); err != nil {
		return nil, err
	}
	ownerID := actor.ID
	if in.UserID != nil && s.own.IsAdmin(actor) {
		ownerID = *in.UserID
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, storeErr(err, "user")
	}

	existing, err := s.books.FindByTitle(ctx, ownerID, in.Title)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if !existing.Deleted {
			return nil, fmt.Errorf("%w: book title already in use", ErrConflict)
		}
		existing.Description = in.Description
		existing.Deleted = false
		if err := s.books.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	b := &model.Book{UserID: ownerID, Title: in.Title, Description: in.Description}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, storeErr(err, "book")
	}
	return b, nil
}

// List returns every book for admins and the actor's own books otherwise.
func (s *BookService) List(ctx context.Context, actor *model.User) ([]*model.Book, error) {
	if s.own.IsAdmin(actor) {
		return s.books.List(ctx, nil)
	}
	return s.books.List(ctx, &actor.ID)
}

func (s *BookService) Get(ctx context.Context, id uint64, actor *model.User) (*model.Book, error) {
	b, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "book")
	}
	if err := s.own.Check(actor, b.UserID); err != nil {
		return nil, err
	}
	return b, nil
}

// Update edits title and description; moving a book to another owner is
// reserved to admins.
func (s *BookService) Update(ctx context.Context, in UpdateBookInput, actor *model.User) (*model.Book, error) {
	s.log.Debug("update")
	if err := validate(in); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, in.ID, actor)
	if err != nil {
		return nil, err
	}

	if in.UserID != nil && *in.UserID != b.UserID {
		if !s.own.IsAdmin(actor) {
			return nil, fmt.Errorf("%w: only admins can change a book's owner", ErrForbidden)
		}
		if _, err := s.users.FindByID(ctx, *in.UserID); err != nil {
			return nil, storeErr(err, "user")
		}
		b.UserID = *in.UserID
	}
	title := b.Title
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	if title != b.Title || in.UserID != nil {
		if err := s.ensureTitleFree(ctx, b.UserID, title, b.ID); err != nil {
			return nil, err
		}
		b.Title = title
	}
	if in.Description != nil {
		b.Description = in.Description
	}

	if err := s.books.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookService) ensureTitleFree(ctx context.Context, ownerID uint64, title string, self uint64) error {
	other, err := s.books.FindByTitle(ctx, ownerID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !other.Deleted && other.ID != self {
		return fmt.Errorf("%w: book title already in use", ErrConflict)
	}
	return nil
}

// Delete soft-deletes an empty book.
func (s *BookService) Delete(ctx context.Context, id uint64, actor *model.User) error {
	s.log.Debug("delete")
	b, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	n, err := s.books.CountActiveNotes(ctx, b.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: book has notes", ErrBadRequest)
	}
	return storeErr(s.books.SoftDelete(ctx, b.ID), "book")
}
