package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/middleware"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

// AuthHandler handles admin login, logout and the session probe.  The
// admin is a single shared password; there are no user accounts.
type AuthHandler struct {
	Codec        *utils.SessionCodec
	Password     string // plain shared password
	PasswordHash string // bcrypt hash, preferred when set
	CookieSecure bool
	Log          *logger.Logger
}

// Login handles POST /v1/admin/login.  On success it sets the session
// cookie and also returns the token for API clients using Bearer auth.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Password == "" || !utils.CheckAdminPassword(body.Password, h.Password, h.PasswordHash) {
		return writeError(c, h.Log, apperr.Unauthorized("Wrong password."))
	}

	token, err := h.Codec.Issue()
	if err != nil {
		return writeError(c, h.Log, apperr.Internal("could not issue session", err))
	}
	c.SetCookie(h.cookie(token, int(utils.SessionTTL.Seconds())))
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "token": token})
}

// Logout handles POST /v1/admin/logout.  Tokens are self-certifying, so
// this only clears the cookie on the client.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me handles GET /v1/admin/me and reports whether the request carries a
// valid session.  It never fails with 401.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": h.Codec.Verify(middleware.SessionToken(c))})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     utils.AdminCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
