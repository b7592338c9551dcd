package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/utils"
)

// TokenVerifier checks a signed token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// UserFinder resolves a token subject to a live user.
type UserFinder interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

// bearerToken extracts the raw token from "Authorization: Bearer <token>".
func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(auth[7:])
	return raw, raw != ""
}

// Authenticate returns an Echo middleware that validates a Bearer access
// token, loads the user named by its subject and stores it in the context.
// Handlers read it back with CurrentUser.  Any failure is a 401: missing
// header, bad signature or algorithm, expired token, a subject that no
// longer resolves to a live user, or a token issued before the account was
// reclaimed by its current holder.
func Authenticate(tokens TokenVerifier, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			u, err := users.FindByID(c.Request().Context(), id)
			if err != nil {
				// deleted users and lookup failures both end the request here
				Logger(c).WithError(err).WithField("user_id", id).Warn("authenticate: user lookup failed")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			var iat time.Time
			if claims.IssuedAt != nil {
				iat = claims.IssuedAt.Time
			}
			if !u.TokenIssuedInSession(iat) {
				Logger(c).WithField("user_id", id).Warn("authenticate: token predates current session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxUser, u)
			c.Set(ctxUserID, strconv.FormatUint(u.ID, 10))
			return next(c)
		}
	}
}

// RefreshAuthenticate guards the refresh endpoint.  It only checks the
// refresh token's signature and expiry; matching it against the stored
// hash is up to the auth service.  The subject and raw token are read back
// with RefreshSubject.
func RefreshAuthenticate(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			id, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
			}
			c.Set(ctxRefreshToken, raw)
			c.Set(ctxUserID, strconv.FormatUint(id, 10))
			return next(c)
		}
	}
}
