package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

// Purger drops cached responses; the role list is cached by the router.
type Purger interface {
	Purge(ctx context.Context) error
}

type RoleHandler struct {
	Roles RoleAPI
	Cache Purger // optional
}

func NewRoleHandler(roles RoleAPI, cache Purger) *RoleHandler {
	return &RoleHandler{Roles: roles, Cache: cache}
}

func (h *RoleHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]service.RoleView, 0, len(roles))
	for _, r := range roles {
		out = append(out, service.NewRoleView(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RoleHandler) Create(c echo.Context) error {
	var req service.CreateRoleInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	role, err := h.Roles.Create(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusCreated, service.NewRoleView(*role))
}

func (h *RoleHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Roles.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "role deleted"})
}

// purge failures only cost staleness until the entries expire.
func (h *RoleHandler) purge(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(c.Request().Context()); err != nil {
		middleware.Logger(c).WithError(err).Warn("role cache purge failed")
	}
}
