package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

type UserHandler struct {
	Users UserAPI
}

func NewUserHandler(users UserAPI) *UserHandler {
	return &UserHandler{Users: users}
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]service.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, service.NewUserView(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Me returns the authenticated user as loaded by the auth middleware.
func (h *UserHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, service.NewUserView(u))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewUserView(u))
}

// Update applies a partial update; the target id travels in the body.
func (h *UserHandler) Update(c echo.Context) error {
	var req service.UpdateUserInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.Update(ctx, middleware.CurrentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, service.NewUserView(u))
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badID(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
