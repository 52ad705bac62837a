package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/handler"
)

// RegisterCustomer registers the booking submission.  It needs no account;
// the rate limiter is the only gate.
func RegisterCustomer(e *echo.Echo, p *handler.PublicHandler, limiter echo.MiddlewareFunc) {
	e.POST("/v1/book", p.Book, limiter)
}
