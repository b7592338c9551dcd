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

type UserService struct {
	users UserStore
	roles RoleStore
	own   Ownership
	log   logrus.FieldLogger
}

func NewUserService(users UserStore, roles RoleStore, own Ownership, log logrus.FieldLogger) *UserService {
	return &UserService{users: users, roles: roles, own: own, log: log.WithField("component", "user")}
}

// List returns every live user.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	s.log.Debug("list")
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	s.log.Debug("get")
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// Update applies a partial update.  Users may edit their own profile;
// editing others, or touching status, confirmation or roles, needs the
// admin role.
func (s *UserService) Update(ctx context.Context, actor *model.User, in UpdateUserInput) (*model.User, error) {
	s.log.Debug("update")
	if err := validate(in); err != nil {
		return nil, err
	}
	admin := s.own.IsAdmin(actor)
	if !admin && (actor == nil || actor.ID != in.ID || in.touchesAdminFields()) {
		return nil, fmt.Errorf("%w: not allowed to update this user", ErrForbidden)
	}

	u, err := s.users.FindByID(ctx, in.ID)
	if err != nil {
		return nil, storeErr(err, "user")
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email != u.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if other != nil && other.ID != u.ID {
				return nil, fmt.Errorf("%w: email already in use", ErrConflict)
			}
			u.Email = email
		}
	}
	if in.Firstname != nil {
		u.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		u.Lastname = strings.TrimSpace(*in.Lastname)
	}
	if in.ProfilePicture != nil {
		u.ProfilePicture = in.ProfilePicture
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	if in.IsEmailConfirmed != nil {
		u.IsEmailConfirmed = *in.IsEmailConfirmed
	}

	var roleIDs []uint64
	if in.Roles != nil {
		if roleIDs, err = s.resolveRoles(ctx, in.Roles); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		return nil, err
	}
	if in.Roles != nil {
		if err := s.users.SetRoles(ctx, u.ID, roleIDs); err != nil {
			return nil, storeErr(err, "role")
		}
		s.log.WithFields(logrus.Fields{"user_id": u.ID, "roles": in.Roles}).Info("roles replaced")
	}
	return s.Get(ctx, u.ID)
}

// resolveRoles trims and de-duplicates names and maps them to role ids.
// Every name must exist.
func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]uint64, error) {
	seen := make(map[string]bool, len(names))
	var clean []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		clean = append(clean, n)
	}
	roles, err := s.roles.FindByNames(ctx, clean)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(clean) {
		return nil, fmt.Errorf("%w: roles not found", ErrNotFound)
	}
	ids := make([]uint64, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids, nil
}

// Delete soft-deletes the user, which also ends its session.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	s.log.WithField("user_id", id).Debug("delete")
	return storeErr(s.users.SoftDelete(ctx, id), "user")
}
