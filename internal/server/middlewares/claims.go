package middlewares

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/savepoint/internal/serror"
	"github.com/mdouchement/savepoint/internal/server/session"
)

// CurrentClaimsContextKey is the key to retrieve the current claims from echo.Context.
const CurrentClaimsContextKey = "current_claims"

// Claims returns a claim-based auth middleware.
// It verifies the bearer claim and stores its content into echo.Context.
func Claims(m session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := token(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return serror.Unauthorized("invalid-auth", "Invalid login credentials.")
			}

			claims, err := m.ParseClaim(token)
			if err != nil {
				return err
			}

			c.Set(CurrentClaimsContextKey, claims)
			return next(c)
		}
	}
}

// AdminOnly returns a middleware that rejects non-admin claims.
// It must be registered after Claims.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(CurrentClaimsContextKey).(*session.Claims)
			if !ok || !claims.Admin {
				return serror.Forbidden("Administrator privileges required.")
			}
			return next(c)
		}
	}
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
