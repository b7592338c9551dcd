package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/model"
)

var (
	errNoUser            = errors.New("unauthorized")
	errEmailNotConfirmed = errors.New("email not confirmed")
	errRoleDenied        = errors.New("forbidden")
)

// Policy is the capability a route requires of the authenticated user.  A
// zero Policy only requires authentication.
type Policy struct {
	RequireEmailConfirmed bool
	// Roles, when non-empty, must intersect the user's roles.  Names are
	// compared case-insensitively.
	Roles []string
}

// Evaluate reports whether u satisfies p.
func (p Policy) Evaluate(u *model.User) error {
	if u == nil {
		return errNoUser
	}
	if p.RequireEmailConfirmed && !u.IsEmailConfirmed {
		return errEmailNotConfirmed
	}
	if len(p.Roles) == 0 {
		return nil
	}
	for _, want := range p.Roles {
		for _, have := range u.Roles {
			if strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have.Name)) {
				return nil
			}
		}
	}
	return errRoleDenied
}

// Authorize returns a middleware enforcing p on the user stored by
// Authenticate, which must run first.  A missing user is a 401; a failed
// check is a 403.
func Authorize(p Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			err := p.Evaluate(u)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, errNoUser):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			Logger(c).WithField("user_id", u.ID).WithField("roles", p.Roles).Warn("guard denied: " + err.Error())
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		}
	}
}

// RequireEmailConfirmed rejects users whose email is not confirmed.
func RequireEmailConfirmed() echo.MiddlewareFunc {
	return Authorize(Policy{RequireEmailConfirmed: true})
}

// RequireRole returns a middleware function that enforces that the
// authenticated user holds at least one of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return Authorize(Policy{Roles: roles})
}
