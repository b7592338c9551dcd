package service

import (
	"time"

	"github.com/iliyamo/notes-api/internal/model"
)

// UserView is what clients see of a user.  Password and refresh token
// hashes are never part of it.
type UserView struct {
	ID               uint64    `json:"id"`
	Email            string    `json:"email"`
	Firstname        string    `json:"firstname"`
	Lastname         string    `json:"lastname"`
	ProfilePicture   *string   `json:"profilePicture"`
	IsEmailConfirmed bool      `json:"isEmailConfirmed"`
	Status           string    `json:"status"`
	Roles            []string  `json:"roles"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NewUserView(u *model.User) UserView {
	return UserView{
		ID:               u.ID,
		Email:            u.Email,
		Firstname:        u.Firstname,
		Lastname:         u.Lastname,
		ProfilePicture:   u.ProfilePicture,
		IsEmailConfirmed: u.IsEmailConfirmed,
		Status:           u.Status,
		Roles:            u.RoleNames(),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

type RoleView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewRoleView(r model.Role) RoleView {
	return RoleView{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type BookView struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewBookView(b *model.Book) BookView {
	return BookView{ID: b.ID, UserID: b.UserID, Title: b.Title, Description: b.Description, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt}
}

type NoteView struct {
	ID        uint64    `json:"id"`
	BookID    uint64    `json:"bookId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewNoteView(n *model.Note) NoteView {
	return NoteView{ID: n.ID, BookID: n.BookID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}
