package middleware

// identity.go holds the context keys shared by the middleware in this
// package and the accessors handlers use to read them.

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
)

const (
	ctxUser         = "user"
	ctxUserID       = "user_id"
	ctxRefreshToken = "refresh_token"
	ctxLogger       = "logger"
)

// CurrentUser returns the user stored by Authenticate, or nil on routes
// that are not authenticated.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ctxUser).(*model.User)
	return u
}

// RefreshSubject returns the user id and raw token stored by
// RefreshAuthenticate.
func RefreshSubject(c echo.Context) (uint64, string, bool) {
	raw, _ := c.Get(ctxRefreshToken).(string)
	id, err := strconv.ParseUint(currentUserID(c), 10, 64)
	if raw == "" || err != nil {
		return 0, "", false
	}
	return id, raw, true
}

// currentUserID returns the authenticated user id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// Logger returns the request-scoped logger stored by RequestLogger, falling
// back to the standard logrus logger.
func Logger(c echo.Context) logrus.FieldLogger {
	if l, ok := c.Get(ctxLogger).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
