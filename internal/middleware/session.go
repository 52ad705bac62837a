package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

const adminContextKey = "admin"

// SessionToken returns the admin session token carried by the request:
// the admin cookie first, then an "Authorization: Bearer" header.
func SessionToken(c echo.Context) string {
	if ck, err := c.Cookie(utils.AdminCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// AdminAuth rejects requests without a valid, unexpired admin session
// token.  It runs before any handler so unauthorised requests never reach
// the store.
func AdminAuth(codec *utils.SessionCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !codec.Verify(SessionToken(c)) {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Unauthorized",
					"code":  apperr.CodeUnauthorized,
				})
			}
			c.Set(adminContextKey, true)
			return next(c)
		}
	}
}

// IsAdmin reports whether AdminAuth accepted the request.
func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(adminContextKey).(bool)
	return v
}

// principal names the caller for rate-limit keys.
func principal(c echo.Context) string {
	if IsAdmin(c) {
		return "admin"
	}
	return "anon"
}
