package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/handler"
	"github.com/iliyamo/appointment-booking/internal/middleware"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

// RegisterAdmin registers the admin session endpoints under /v1/admin and
// the slot and booking management routes behind AdminAuth.  Login is rate
// limited to slow down password guessing.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, h *handler.AdminHandler, codec *utils.SessionCodec, limiter echo.MiddlewareFunc) {
	e.POST("/v1/admin/login", a.Login, limiter)
	e.POST("/v1/admin/logout", a.Logout)
	e.GET("/v1/admin/me", a.Me)

	g := e.Group("/v1/admin", middleware.AdminAuth(codec))
	g.GET("/slots", h.ListSlots)
	g.POST("/slots", h.CreateSlot)
	g.POST("/slots/bulk", h.CreateSlotsBulk)
	g.POST("/slots/generate", h.GenerateSlots)
	g.GET("/slots/preview", h.PreviewSlots)
	g.DELETE("/slots/:id", h.DeleteSlot)
	g.GET("/bookings", h.ListBookings)
}
