package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/service"
)

// PublicHandler serves the customer-facing endpoints.
type PublicHandler struct {
	Slots    *service.SlotService
	Bookings *service.BookingService
	Purger   CachePurger
	Log      *logger.Logger
}

// openSlot is the public projection of a slot; booking state is not exposed.
type openSlot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ListSlots handles GET /v1/slots.
func (h *PublicHandler) ListSlots(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slots, err := h.Slots.ListOpenSlots(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]openSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, openSlot{ID: s.ID, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": out})
}

// Book handles POST /v1/book.
func (h *PublicHandler) Book(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid booking info.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Bookings.Book(ctx, in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	// the booked slot must disappear from the cached listing
	purge(h.Purger)
	return c.JSON(http.StatusOK, echo.Map{
		"ok":         true,
		"message":    res.Message,
		"booking_id": res.BookingID,
	})
}
