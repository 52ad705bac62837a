package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/schedule"
	"github.com/iliyamo/appointment-booking/internal/service"
)

// AdminHandler serves the slot management and bookings endpoints.  Every
// route is mounted behind middleware.AdminAuth.
type AdminHandler struct {
	Slots    *service.SlotService
	Bookings *service.BookingService
	Purger   CachePurger
	Location *time.Location // zone for generator dates and hours
	Log      *logger.Logger
}

// ListSlots handles GET /v1/admin/slots: upcoming slots with their booking.
func (h *AdminHandler) ListSlots(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slots, err := h.Slots.ListUpcomingSlots(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// CreateSlot handles POST /v1/admin/slots {start_time, minutes}.
func (h *AdminHandler) CreateSlot(c echo.Context) error {
	var body struct {
		StartTime string `json:"start_time"`
		Minutes   int    `json:"minutes"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid input.")
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(body.StartTime))
	if err != nil {
		return badRequest(c, "Bad start time.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slot, err := h.Slots.CreateSlot(ctx, start, body.Minutes)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	purge(h.Purger)
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "slot": slot})
}

// CreateSlotsBulk handles POST /v1/admin/slots/bulk {slots: [{start_time, end_time}]}.
func (h *AdminHandler) CreateSlotsBulk(c echo.Context) error {
	var body struct {
		Slots []service.SlotInput `json:"slots"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid bulk slots.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slots, err := h.Slots.CreateSlots(ctx, body.Slots)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	purge(h.Purger)
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "created": len(slots)})
}

// generateRequest mirrors schedule.WeekConfig; omitted fields fall back to
// the defaults (Monday to Saturday, 10:00 to 18:00, 45 minutes, no buffer).
type generateRequest struct {
	StartDate     string `json:"start_date"`
	Weekdays      []int  `json:"weekdays"`
	OpenHour      *int   `json:"open_hour"`
	CloseHour     *int   `json:"close_hour"`
	SlotMinutes   *int   `json:"slot_minutes"`
	BufferMinutes *int   `json:"buffer_minutes"`
}

func (r generateRequest) weekConfig(loc *time.Location) (schedule.WeekConfig, error) {
	start, err := schedule.ParseDate(strings.TrimSpace(r.StartDate), loc)
	if err != nil {
		return schedule.WeekConfig{}, err
	}
	cfg := schedule.DefaultWeekConfig(start, loc)
	if r.Weekdays != nil {
		cfg.Weekdays = r.Weekdays
	}
	if r.OpenHour != nil {
		cfg.OpenHour = *r.OpenHour
	}
	if r.CloseHour != nil {
		cfg.CloseHour = *r.CloseHour
	}
	if r.SlotMinutes != nil {
		cfg.SlotMinutes = *r.SlotMinutes
	}
	if r.BufferMinutes != nil {
		cfg.BufferMinutes = *r.BufferMinutes
	}
	return cfg, nil
}

// GenerateSlots handles POST /v1/admin/slots/generate.
func (h *AdminHandler) GenerateSlots(c echo.Context) error {
	var body generateRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid input.")
	}
	cfg, err := body.weekConfig(h.Location)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	slots, err := h.Slots.GenerateSlots(ctx, cfg)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	purge(h.Purger)
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "created": len(slots)})
}

// PreviewSlots handles GET /v1/admin/slots/preview.  It takes the generate
// fields as query parameters, weekdays comma separated, and stores nothing.
func (h *AdminHandler) PreviewSlots(c echo.Context) error {
	q := generateRequest{StartDate: c.QueryParam("start_date")}
	if raw := strings.TrimSpace(c.QueryParam("weekdays")); raw != "" {
		days, err := parseWeekdays(raw)
		if err != nil {
			return badRequest(c, "weekdays must be a comma separated list of 1..7")
		}
		q.Weekdays = days
	}
	for name, dst := range map[string]**int{
		"open_hour":      &q.OpenHour,
		"close_hour":     &q.CloseHour,
		"slot_minutes":   &q.SlotMinutes,
		"buffer_minutes": &q.BufferMinutes,
	} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, name+" must be an integer")
		}
		*dst = &n
	}
	cfg, err := q.weekConfig(h.Location)
	if err != nil {
		return badRequest(c, err.Error())
	}
	n, err := h.Slots.PreviewSlots(cfg)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// DeleteSlot handles DELETE /v1/admin/slots/:id.
func (h *AdminHandler) DeleteSlot(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Slots.DeleteSlot(ctx, strings.TrimSpace(c.Param("id"))); err != nil {
		return writeError(c, h.Log, err)
	}
	purge(h.Purger)
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// ListBookings handles GET /v1/admin/bookings.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	bookings, err := h.Bookings.ListRecentBookings(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

func parseWeekdays(raw string) ([]int, error) {
	var days []int
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}
