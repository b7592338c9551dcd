// Package service holds the business rules: the authentication flows,
// ownership checks and the CRUD operations over users, roles, books and
// notes.  Services depend on the narrow interfaces below; the MySQL
// repositories, the token service, the bcrypt hasher and the mail queues
// satisfy them.
package service

import (
	"context"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/utils"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAnyByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, u *model.User) (uint64, error)
	Reclaim(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	SetRefreshTokenHash(ctx context.Context, id uint64, hash *string) error
	ConfirmEmail(ctx context.Context, id uint64) (bool, error)
	SetRoles(ctx context.Context, userID uint64, roleIDs []uint64) error
	SoftDelete(ctx context.Context, id uint64) error
}

type RoleStore interface {
	List(ctx context.Context) ([]model.Role, error)
	FindByNames(ctx context.Context, names []string) ([]model.Role, error)
	FindByID(ctx context.Context, id uint64) (*model.Role, error)
	Create(ctx context.Context, name string) (uint64, error)
	Delete(ctx context.Context, id uint64) error
}

type BookStore interface {
	Create(ctx context.Context, b *model.Book) error
	GetByID(ctx context.Context, id uint64) (*model.Book, error)
	FindByTitle(ctx context.Context, userID uint64, title string) (*model.Book, error)
	List(ctx context.Context, ownerID *uint64) ([]*model.Book, error)
	Update(ctx context.Context, b *model.Book) error
	CountActiveNotes(ctx context.Context, bookID uint64) (int, error)
	SoftDelete(ctx context.Context, id uint64) error
}

type NoteStore interface {
	Create(ctx context.Context, n *model.Note) error
	GetByID(ctx context.Context, id uint64) (*model.Note, error)
	FindByTitle(ctx context.Context, title string) (*model.Note, error)
	List(ctx context.Context, ownerID *uint64) ([]*model.Note, error)
	Update(ctx context.Context, n *model.Note) error
	SoftDelete(ctx context.Context, id uint64) error
}

// TokenIssuer signs access/refresh pairs.
type TokenIssuer interface {
	Issue(userID uint64, email string) (utils.TokenPair, error)
}

// PasswordHasher hashes passwords and refresh tokens.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	HashToken(token string) (string, error)
	VerifyToken(token, hash string) bool
}

// MailPublisher enqueues mail requests for the worker.
type MailPublisher interface {
	Publish(ctx context.Context, req queue.MailRequest) error
}
