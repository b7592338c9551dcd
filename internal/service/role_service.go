package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
)

type RoleService struct {
	roles RoleStore
	log   logrus.FieldLogger
}

func NewRoleService(roles RoleStore, log logrus.FieldLogger) *RoleService {
	return &RoleService{roles: roles, log: log.WithField("component", "role")}
}

func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	return s.roles.List(ctx)
}

// Create adds a role; names are unique.
func (s *RoleService) Create(ctx context.Context, in CreateRoleInput) (*model.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	id, err := s.roles.Create(ctx, in.Name)
	if err != nil {
		return nil, storeErr(err, "role")
	}
	s.log.WithField("role", in.Name).Info("role created")
	role, err := s.roles.FindByID(ctx, id)
	return role, storeErr(err, "role")
}

// Delete removes a role that no user holds any more.
func (s *RoleService) Delete(ctx context.Context, id uint64) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return storeErr(err, "role")
	}
	s.log.WithField("role_id", id).Info("role deleted")
	return nil
}
