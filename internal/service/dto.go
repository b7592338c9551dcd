package service

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/utils"
)

// maxBytes rejects strings longer than n bytes.  bcrypt ignores everything
// past 72 bytes, so longer passwords are refused instead of truncated.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes long", n)
		}
		return nil
	}
}

var passwordRules = []validation.Rule{
	validation.Required,
	validation.By(maxBytes(utils.MaxPasswordBytes)),
}

type RegisterInput struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Firstname      string  `json:"firstname"`
	Lastname       string  `json:"lastname"`
	ProfilePicture *string `json:"profilePicture"`
}

func (r *RegisterInput) normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
}

func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Firstname, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Lastname, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.ProfilePicture, validation.Length(0, 255)),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type ChangePasswordInput struct {
	ID          uint64 `json:"id"`
	NewPassword string `json:"newPassword"`
}

func (r ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

type RecoverPasswordInput struct {
	Email string `json:"email"`
}

func (r RecoverPasswordInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
// Status, IsEmailConfirmed and Roles may only be set by an admin.
type UpdateUserInput struct {
	ID               uint64   `json:"id"`
	Email            *string  `json:"email"`
	Firstname        *string  `json:"firstname"`
	Lastname         *string  `json:"lastname"`
	ProfilePicture   *string  `json:"profilePicture"`
	Status           *string  `json:"status"`
	IsEmailConfirmed *bool    `json:"isEmailConfirmed"`
	Roles            []string `json:"roles"`
}

func (r UpdateUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 255), is.Email),
		validation.Field(&r.Firstname, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Lastname, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.ProfilePicture, validation.Length(0, 255)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(model.StatusActive, model.StatusInactive)),
	)
}

func (r UpdateUserInput) touchesAdminFields() bool {
	return r.Status != nil || r.IsEmailConfirmed != nil || r.Roles != nil
}

type CreateRoleInput struct {
	Name string `json:"name"`
}

func (r CreateRoleInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 50)),
	)
}

// CreateBookInput creates a book for the actor; an admin may name another
// owner with UserID.
type CreateBookInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UserID      *uint64 `json:"userId"`
}

func (r CreateBookInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
	)
}

type UpdateBookInput struct {
	ID          uint64  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	UserID      *uint64 `json:"userId"`
}

func (r UpdateBookInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

type CreateNoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	BookID  uint64 `json:"bookId"`
}

func (r CreateNoteInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.BookID, validation.Required),
	)
}

type UpdateNoteInput struct {
	ID      uint64  `json:"id"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
	BookID  *uint64 `json:"bookId"`
}

func (r UpdateNoteInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Content, validation.NilOrNotEmpty),
	)
}
