// Package middleware holds the echo middleware shared by all routes: bearer
// authentication, per-IP rate limiting and request metrics.
package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	userdomain "internship-portal/backend/internal/user/domain"
)

type contextKey struct{ name string }

var userKey = contextKey{"user"}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *userdomain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user from ctx and true if set; otherwise nil, false.
func UserFrom(ctx context.Context) (*userdomain.User, bool) {
	u, ok := ctx.Value(userKey).(*userdomain.User)
	return u, ok && u != nil
}

// CurrentUser returns the user set by RequireUser for this request.
func CurrentUser(c echo.Context) (*userdomain.User, bool) {
	return UserFrom(c.Request().Context())
}
