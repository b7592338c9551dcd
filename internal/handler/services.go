package handler

import (
	"context"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/service"
	"github.com/iliyamo/notes-api/internal/utils"
)

// The interfaces below are the parts of internal/service each handler
// calls.  The concrete services satisfy them.

type AuthAPI interface {
	Register(ctx context.Context, in service.RegisterInput) (utils.TokenPair, error)
	Login(ctx context.Context, in service.LoginInput) (utils.TokenPair, error)
	Refresh(ctx context.Context, userID uint64, refreshToken string) (utils.TokenPair, error)
	ChangePassword(ctx context.Context, actor *model.User, in service.ChangePasswordInput) (utils.TokenPair, error)
	RecoverPassword(ctx context.Context, in service.RecoverPasswordInput) error
	Logout(ctx context.Context, userID uint64) error
	SendEmailConfirmationEmail(ctx context.Context, u *model.User) error
	ConfirmEmail(ctx context.Context, u *model.User) error
	Profile(u *model.User) service.UserView
}

type UserAPI interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id uint64) (*model.User, error)
	Update(ctx context.Context, actor *model.User, in service.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uint64) error
}

type RoleAPI interface {
	List(ctx context.Context) ([]model.Role, error)
	Create(ctx context.Context, in service.CreateRoleInput) (*model.Role, error)
	Delete(ctx context.Context, id uint64) error
}

type BookAPI interface {
	Create(ctx context.Context, in service.CreateBookInput, actor *model.User) (*model.Book, error)
	List(ctx context.Context, actor *model.User) ([]*model.Book, error)
	Get(ctx context.Context, id uint64, actor *model.User) (*model.Book, error)
	Update(ctx context.Context, in service.UpdateBookInput, actor *model.User) (*model.Book, error)
	Delete(ctx context.Context, id uint64, actor *model.User) error
}

type NoteAPI interface {
	Create(ctx context.Context, in service.CreateNoteInput, actor *model.User) (*model.Note, error)
	List(ctx context.Context, actor *model.User) ([]*model.Note, error)
	Get(ctx context.Context, id uint64, actor *model.User) (*model.Note, error)
	Update(ctx context.Context, in service.UpdateNoteInput, actor *model.User) (*model.Note, error)
	Delete(ctx context.Context, id uint64, actor *model.User) error
}

var (
	_ AuthAPI = (*service.AuthService)(nil)
	_ UserAPI = (*service.UserService)(nil)
	_ RoleAPI = (*service.RoleService)(nil)
	_ BookAPI = (*service.BookService)(nil)
	_ NoteAPI = (*service.NoteService)(nil)
)
