package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"internship-portal/backend/internal/session"
	userdomain "internship-portal/backend/internal/user/domain"
)

// Resolver resolves an Authorization header to a user (session.Issuer).
type Resolver interface {
	Resolve(ctx context.Context, header string) (*userdomain.User, error)
}

// RequireUser rejects requests without a valid bearer token with 401 and otherwise
// puts the resolved user in the request context.
func RequireUser(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			u, err := r.Resolve(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, session.ErrUnauthenticated) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Unauthorized"})
				}
				log.Printf("auth: resolve bearer token: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Internal server error"})
			}
			c.SetRequest(req.WithContext(WithUser(req.Context(), u)))
			return next(c)
		}
	}
}
