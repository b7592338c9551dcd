package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  It
// implements UserStore, RoleStore, BookStore and NoteStore through the
// thin wrappers below.
type memStore struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	grants map[uint64][]uint64
	roles  map[uint64]model.Role
	books  map[uint64]*model.Book
	notes  map[uint64]*model.Note
	nextID uint64
}

func newMemStore() *memStore {
	s := &memStore{
		users:  map[uint64]*model.User{},
		grants: map[uint64][]uint64{},
		roles:  map[uint64]model.Role{},
		books:  map[uint64]*model.Book{},
		notes:  map[uint64]*model.Note{},
	}
	s.roles[s.id()] = model.Role{ID: 1, Name: "Administrador"}
	return s
}

func (s *memStore) id() uint64 { s.nextID++; return s.nextID }

func (s *memStore) withRoles(u *model.User) *model.User {
	cp := *u
	cp.Roles = nil
	for _, rid := range s.grants[u.ID] {
		cp.Roles = append(cp.Roles, s.roles[rid])
	}
	return &cp
}

// --- users ---

type memUsers struct{ *memStore }

func (s memUsers) FindByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return nil, repository.ErrNotFound
	}
	return s.withRoles(u), nil
}

func (s memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.FindAnyByEmail(ctx, email)
	if err != nil || u.Deleted {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s memUsers) FindAnyByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.withRoles(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memUsers) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.User
	for id := uint64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok && !u.Deleted {
			out = append(out, s.withRoles(u))
		}
	}
	return out, nil
}

func (s memUsers) Create(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return 0, repository.ErrDuplicate
		}
	}
	cp := *u
	cp.ID = s.id()
	cp.CreatedAt = time.Now()
	s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (s memUsers) Reclaim(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok || !cur.Deleted {
		return repository.ErrNotFound
	}
	cur.Firstname, cur.Lastname, cur.ProfilePicture, cur.PasswordHash = u.Firstname, u.Lastname, u.ProfilePicture, u.PasswordHash
	cur.RefreshTokenHash = nil
	cur.SessionsValidFrom = u.SessionsValidFrom
	cur.IsEmailConfirmed = false
	cur.Status = model.StatusActive
	cur.Deleted = false
	delete(s.grants, u.ID)
	for _, b := range s.books {
		if b.UserID != u.ID {
			continue
		}
		b.Deleted = true
		for _, n := range s.notes {
			if n.BookID == b.ID {
				n.Deleted = true
			}
		}
	}
	return nil
}

func (s memUsers) Update(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.users[u.ID]
	cur.Email, cur.Firstname, cur.Lastname, cur.ProfilePicture = u.Email, u.Firstname, u.Lastname, u.ProfilePicture
	cur.Status, cur.IsEmailConfirmed = u.Status, u.IsEmailConfirmed
	return nil
}

func (s memUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].PasswordHash = hash
	return nil
}

func (s memUsers) SetRefreshTokenHash(_ context.Context, id uint64, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.RefreshTokenHash = hash
	}
	return nil
}

func (s memUsers) ConfirmEmail(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	if u.IsEmailConfirmed {
		return false, nil
	}
	u.IsEmailConfirmed = true
	return true, nil
}

func (s memUsers) SetRoles(_ context.Context, userID uint64, roleIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[userID] = append([]uint64(nil), roleIDs...)
	return nil
}

func (s memUsers) SoftDelete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return repository.ErrNotFound
	}
	u.Deleted = true
	u.RefreshTokenHash = nil
	return nil
}

// --- roles ---

type memRoles struct{ *memStore }

func (s memRoles) List(_ context.Context) ([]model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Role
	for id := uint64(1); id <= s.nextID; id++ {
		if r, ok := s.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s memRoles) FindByNames(_ context.Context, names []string) ([]model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Role
	for _, r := range s.roles {
		for _, n := range names {
			if strings.EqualFold(r.Name, n) {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s memRoles) FindByID(_ context.Context, id uint64) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s memRoles) Create(_ context.Context, name string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if strings.EqualFold(r.Name, name) {
			return 0, repository.ErrDuplicate
		}
	}
	id := s.id()
	s.roles[id] = model.Role{ID: id, Name: name}
	return id, nil
}

func (s memRoles) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return repository.ErrNotFound
	}
	for _, ids := range s.grants {
		for _, rid := range ids {
			if rid == id {
				return repository.ErrInUse
			}
		}
	}
	delete(s.roles, id)
	return nil
}

// --- books ---

type memBooks struct{ *memStore }

func (s memBooks) Create(_ context.Context, b *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	cp := *b
	s.books[b.ID] = &cp
	return nil
}

func (s memBooks) GetByID(_ context.Context, id uint64) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.Deleted {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s memBooks) FindByTitle(_ context.Context, userID uint64, title string) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.Book
	for _, b := range s.books {
		if b.UserID == userID && b.Title == title && (found == nil || found.Deleted) {
			found = b
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (s memBooks) List(_ context.Context, ownerID *uint64) ([]*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Book
	for id := uint64(1); id <= s.nextID; id++ {
		b, ok := s.books[id]
		if !ok || b.Deleted || (ownerID != nil && b.UserID != *ownerID) {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (s memBooks) Update(_ context.Context, b *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.books[b.ID] = &cp
	return nil
}

func (s memBooks) CountActiveNotes(_ context.Context, bookID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, note := range s.notes {
		if note.BookID == bookID && !note.Deleted {
			n++
		}
	}
	return n, nil
}

func (s memBooks) SoftDelete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.Deleted {
		return repository.ErrNotFound
	}
	b.Deleted = true
	return nil
}

// --- notes ---

type memNotes struct{ *memStore }

func (s memNotes) Create(_ context.Context, n *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.notes {
		if other.Title == n.Title {
			return repository.ErrDuplicate
		}
	}
	n.ID = s.id()
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s memNotes) GetByID(_ context.Context, id uint64) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.Deleted {
		return nil, repository.ErrNotFound
	}
	cp := *n
	cp.OwnerID = s.books[n.BookID].UserID
	return &cp, nil
}

func (s memNotes) FindByTitle(_ context.Context, title string) (*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		if n.Title == title {
			cp := *n
			cp.OwnerID = s.books[n.BookID].UserID
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s memNotes) List(_ context.Context, ownerID *uint64) ([]*model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Note
	for id := uint64(1); id <= s.nextID; id++ {
		n, ok := s.notes[id]
		if !ok || n.Deleted {
			continue
		}
		owner := s.books[n.BookID].UserID
		if ownerID != nil && owner != *ownerID {
			continue
		}
		cp := *n
		cp.OwnerID = owner
		out = append(out, &cp)
	}
	return out, nil
}

func (s memNotes) Update(_ context.Context, n *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s memNotes) SoftDelete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.Deleted {
		return repository.ErrNotFound
	}
	n.Deleted = true
	return nil
}

// --- mail ---

type recordingMail struct {
	mu   sync.Mutex
	sent []queue.MailRequest
	err  error
}

func (m *recordingMail) Publish(_ context.Context, req queue.MailRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, req)
	return nil
}

func (m *recordingMail) kinds() []queue.MailKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]queue.MailKind, len(m.sent))
	for i, r := range m.sent {
		out[i] = r.Kind
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
