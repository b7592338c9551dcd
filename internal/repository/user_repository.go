package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/notes-api/internal/model"
)

const userColumns = "id, email, firstname, lastname, profile_picture, password_hash, refresh_token_hash, sessions_valid_from, is_email_confirmed, status, deleted, created_at, updated_at"

// UserRepo reads and writes the users and users_roles tables.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u       model.User
		pic     sql.NullString
		refresh sql.NullString
		epoch   sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Email, &u.Firstname, &u.Lastname, &pic, &u.PasswordHash, &refresh, &epoch,
		&u.IsEmailConfirmed, &u.Status, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pic.Valid {
		u.ProfilePicture = &pic.String
	}
	if refresh.Valid {
		u.RefreshTokenHash = &refresh.String
	}
	if epoch.Valid {
		u.SessionsValidFrom = &epoch.Time
	}
	return &u, nil
}

// nullable turns an optional string into a driver value (NULL when nil).
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// FindByID fetches a live (non-deleted) user with roles.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? AND deleted = 0 LIMIT 1", id)
}

// FindByEmail fetches a live user by email.  Emails are compared as stored.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? AND deleted = 0 LIMIT 1", email)
}

// FindAnyByEmail also returns soft-deleted users.  Only registration uses it,
// to detect an account that can be reclaimed.
func (r *UserRepo) FindAnyByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
}

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns every live user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE deleted = 0 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, out...); err != nil {
		return nil, err
	}
	return out, nil
}

// loadRoles fills Roles for the given users with a single query.
func (r *UserRepo) loadRoles(ctx context.Context, users ...*model.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.User, len(users))
	args := make([]any, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		args = append(args, u.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

	rows, err := r.DB.QueryContext(ctx,
		"SELECT ur.user_id, r.id, r.name, r.created_at, r.updated_at FROM users_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id IN ("+placeholders+") ORDER BY r.id",
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			uid  uint64
			role model.Role
		)
		if err := rows.Scan(&uid, &role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		if u, ok := byID[uid]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return rows.Err()
}

// Create inserts user and returns its ID.  A taken email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	status := u.Status
	if status == "" {
		status = model.StatusActive
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, firstname, lastname, profile_picture, password_hash, status) VALUES (?, ?, ?, ?, ?, ?)",
		u.Email, u.Firstname, u.Lastname, nullable(u.ProfilePicture), u.PasswordHash, status)
	if err != nil {
		return 0, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Reclaim revives a soft-deleted account for a new registrant: profile and
// password are overwritten, confirmation and session are reset and every
// role grant is dropped.  sessions_valid_from is set from u so tokens issued
// to the previous holder stop resolving, and the previous holder's books and
// notes are soft-deleted in the same transaction.
func (r *UserRepo) Reclaim(ctx context.Context, u *model.User) error {
	var epoch any
	if u.SessionsValidFrom != nil {
		epoch = u.SessionsValidFrom.UTC()
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET firstname = ?, lastname = ?, profile_picture = ?, password_hash = ?, refresh_token_hash = NULL, sessions_valid_from = ?, is_email_confirmed = 0, status = 'ACTIVE', deleted = 0 WHERE id = ? AND deleted = 1",
		u.Firstname, u.Lastname, nullable(u.ProfilePicture), u.PasswordHash, epoch, u.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users_roles WHERE user_id = ?", u.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE notes n JOIN books b ON b.id = n.book_id SET n.deleted = 1 WHERE b.user_id = ? AND n.deleted = 0", u.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE books SET deleted = 1 WHERE user_id = ? AND deleted = 0", u.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// Update writes the editable profile columns.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email = ?, firstname = ?, lastname = ?, profile_picture = ?, status = ?, is_email_confirmed = ? WHERE id = ? AND deleted = 0",
		u.Email, u.Firstname, u.Lastname, nullable(u.ProfilePicture), u.Status, u.IsEmailConfirmed, u.ID)
	return translate(err)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ? AND deleted = 0", hash, id)
	return err
}

// SetRefreshTokenHash stores the hash of the current refresh token; nil
// clears it and ends the session.
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id uint64, hash *string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET refresh_token_hash = ? WHERE id = ?", nullable(hash), id)
	return err
}

// ConfirmEmail flips is_email_confirmed.  The conditional update makes the
// flip happen once; changed is false when it was already set.
func (r *UserRepo) ConfirmEmail(ctx context.Context, id uint64) (changed bool, err error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_email_confirmed = 1 WHERE id = ? AND is_email_confirmed = 0 AND deleted = 0", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetRoles replaces the user's role grants.
func (r *UserRepo) SetRoles(ctx context.Context, userID uint64, roleIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users_roles WHERE user_id = ?", userID); err != nil {
		return err
	}
	for _, rid := range roleIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO users_roles (user_id, role_id) VALUES (?, ?)", userID, rid); err != nil {
			return translate(err)
		}
	}
	return tx.Commit()
}

// SoftDelete hides the user and ends its session.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted = 1, refresh_token_hash = NULL WHERE id = ? AND deleted = 0", id)
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
