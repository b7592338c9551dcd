package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/middleware"
)

// Guards are the middleware the route groups are assembled from.  Auth and
// Refresh are required; RateLimit and RoleCache may be nil.
type Guards struct {
	Auth      echo.MiddlewareFunc // Bearer access token -> user
	Refresh   echo.MiddlewareFunc // Bearer refresh token -> subject
	AdminRole string
	RateLimit echo.MiddlewareFunc // applied to /auth
	RoleCache echo.MiddlewareFunc // applied to GET /role
}

func (g Guards) confirmed() echo.MiddlewareFunc {
	return middleware.RequireEmailConfirmed()
}

func (g Guards) admin() echo.MiddlewareFunc {
	return middleware.RequireRole(g.AdminRole)
}

// confirmedAdmin requires a confirmed email and the admin role.
func (g Guards) confirmedAdmin() echo.MiddlewareFunc {
	return middleware.Authorize(middleware.Policy{RequireEmailConfirmed: true, Roles: []string{g.AdminRole}})
}

func optional(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the session endpoints under /auth.  register,
// login and recover-password are public; refresh takes the refresh token;
// everything else takes an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	grp := e.Group("/auth", optional(g.RateLimit)...)

	grp.POST("/register", a.Register)
	grp.POST("/login", a.Login)
	grp.POST("/recover-password", a.RecoverPassword)
	grp.POST("/refresh", a.Refresh, g.Refresh)

	grp.POST("/logout", a.Logout, g.Auth)
	grp.POST("/change-password", a.ChangePassword, g.Auth)
	grp.POST("/email-confirmation/send", a.SendEmailConfirmation, g.Auth)
	grp.POST("/email-confirmation/confirm", a.ConfirmEmail, g.Auth)

	grp.GET("/test-auth", a.TestAuth, g.Auth)
	grp.GET("/test-email-confirmed", a.TestEmailConfirmed, g.Auth, g.confirmed())
	grp.GET("/test-role-permission", a.TestRolePermission, g.Auth, g.confirmedAdmin())
}

// RegisterUsers: listing and deleting users is for confirmed admins; any
// authenticated user may read profiles and patch their own.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, g Guards) {
	grp := e.Group("/user", g.Auth)
	grp.GET("", u.List, g.confirmedAdmin())
	grp.GET("/me", u.Me)
	grp.GET("/:id", u.Get)
	grp.PATCH("", u.Update)
	grp.DELETE("/:id", u.Delete, g.confirmedAdmin())
}

// RegisterRoles: the catalog is readable by any authenticated user and
// cached; changes are admin-only.
func RegisterRoles(e *echo.Echo, r *handler.RoleHandler, g Guards) {
	grp := e.Group("/role", g.Auth)
	grp.GET("", r.List, optional(g.RoleCache)...)
	grp.POST("", r.Create, g.admin())
	grp.DELETE("/:id", r.Delete, g.admin())
}

// RegisterBooks: books need a confirmed email.
func RegisterBooks(e *echo.Echo, b *handler.BookHandler, g Guards) {
	grp := e.Group("/book", g.Auth, g.confirmed())
	grp.POST("", b.Create)
	grp.GET("", b.List)
	grp.GET("/:id", b.Get)
	grp.PATCH("", b.Update)
	grp.DELETE("/:id", b.Delete)
}

// RegisterNotes: notes only need authentication.
func RegisterNotes(e *echo.Echo, n *handler.NoteHandler, g Guards) {
	grp := e.Group("/note", g.Auth)
	grp.POST("", n.Create)
	grp.GET("", n.List)
	grp.GET("/:id", n.Get)
	grp.PATCH("", n.Update)
	grp.DELETE("/:id", n.Delete)
}

func RegisterMailer(e *echo.Echo, m *handler.MailerHandler, g Guards) {
	e.POST("/mailer/test", m.SendTest, g.Auth, g.admin())
}
