package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/middleware"
	"github.com/iliyamo/notes-api/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/register")
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, pair)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/login")
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh: rotate the session; the refresh token comes from the Authorization header.
func (h *AuthHandler) Refresh(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/refresh")
	id, raw, ok := middleware.RefreshSubject(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, id, raw)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout: forget the stored refresh hash.  Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/logout")
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, u.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/change-password")
	var req service.ChangePasswordInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Auth.ChangePassword(ctx, middleware.CurrentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/recover-password")
	var req service.RecoverPasswordInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.RecoverPassword(ctx, req); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "recovery email sent"})
}

func (h *AuthHandler) SendEmailConfirmation(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/email-confirmation/send")
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.SendEmailConfirmationEmail(ctx, middleware.CurrentUser(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "confirmation email sent"})
}

func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	middleware.Logger(c).Debug("POST /auth/email-confirmation/confirm")
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.ConfirmEmail(ctx, middleware.CurrentUser(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

// The three guard test routes answer with the caller's profile; which guards
// run in front of each is decided by the router.

func (h *AuthHandler) TestAuth(c echo.Context) error {
	return h.greet(c, "you are authenticated")
}

func (h *AuthHandler) TestEmailConfirmed(c echo.Context) error {
	return h.greet(c, "your email is confirmed")
}

func (h *AuthHandler) TestRolePermission(c echo.Context) error {
	return h.greet(c, "you hold the required role")
}

func (h *AuthHandler) greet(c echo.Context, status string) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	v := h.Auth.Profile(u)
	return c.String(http.StatusOK, fmt.Sprintf("Hello %s %s <%s>, %s. Roles: %v", v.Firstname, v.Lastname, v.Email, status, v.Roles))
}
