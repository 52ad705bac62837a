package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/logger"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

// CachePurger drops cached open-slot listings after a mutation.
type CachePurger interface {
	Purge(ctx context.Context)
}

// writeError renders err as {"error", "code"} with the status its AppError
// carries.  Collaborator failures and unclassified errors are logged; the
// caller only sees the message.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	ae, ok := apperr.As(err)
	if !ok {
		log.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": apperr.CodeInternal})
	}
	if ae.Err != nil {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "code", ae.Code, "error", ae.Err)
	}
	status := ae.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, echo.Map{"error": ae.Message, "code": ae.Code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": apperr.CodeInvalidInput})
}

func purge(p CachePurger) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p.Purge(ctx)
}
