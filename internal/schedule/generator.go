// Package schedule computes candidate slots from a weekly opening pattern.
// It is pure computation: callers submit the produced windows to the slot
// store themselves.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure of WeekConfig.
var ErrInvalidConfig = errors.New("invalid schedule config")

// maxMinutes bounds slot and buffer lengths to one day.
const maxMinutes = 24 * 60

// DateLayout is the layout accepted for WeekConfig start dates.
const DateLayout = "2006-01-02"

// WeekConfig describes one week of opening hours.  Weekdays use the
// Monday=1 .. Sunday=7 convention.  Hours are wall-clock hours in
// Location; CloseHour may be 24 to mean midnight at the end of the day.
type WeekConfig struct {
	StartDate     time.Time
	Weekdays      []int
	OpenHour      int
	CloseHour     int
	SlotMinutes   int
	BufferMinutes int
	Location      *time.Location
}

// Window is one generated [Start, End) slot.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWeekConfig returns Monday to Saturday, 10:00 to 18:00, 45 minute
// slots without buffer, starting on the given date.
func DefaultWeekConfig(start time.Time, loc *time.Location) WeekConfig {
	return WeekConfig{
		StartDate:   start,
		Weekdays:    []int{1, 2, 3, 4, 5, 6},
		OpenHour:    10,
		CloseHour:   18,
		SlotMinutes: 45,
		Location:    loc,
	}
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidConfig)
	}
	return t, nil
}

// Validate reports the first configuration error, if any.
func (c WeekConfig) Validate() error {
	switch {
	case c.StartDate.IsZero():
		return fmt.Errorf("%w: start date is required", ErrInvalidConfig)
	case c.OpenHour < 0 || c.OpenHour > 23:
		return fmt.Errorf("%w: open hour must be between 0 and 23", ErrInvalidConfig)
	case c.CloseHour < 1 || c.CloseHour > 24:
		return fmt.Errorf("%w: close hour must be between 1 and 24", ErrInvalidConfig)
	case c.CloseHour <= c.OpenHour:
		return fmt.Errorf("%w: close hour must be after open hour", ErrInvalidConfig)
	case c.SlotMinutes < 5:
		return fmt.Errorf("%w: slot minutes too small", ErrInvalidConfig)
	case c.SlotMinutes > maxMinutes:
		return fmt.Errorf("%w: slot minutes cannot exceed %d", ErrInvalidConfig, maxMinutes)
	case c.BufferMinutes < 0:
		return fmt.Errorf("%w: buffer minutes cannot be negative", ErrInvalidConfig)
	case c.BufferMinutes > maxMinutes:
		return fmt.Errorf("%w: buffer minutes cannot exceed %d", ErrInvalidConfig, maxMinutes)
	}
	for _, d := range c.Weekdays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: weekday %d outside 1..7", ErrInvalidConfig, d)
		}
	}
	return nil
}

// GenerateWeek emits the slots for the seven calendar days starting at
// StartDate, in chronological order.
func GenerateWeek(c WeekConfig) ([]Window, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	slot := time.Duration(c.SlotMinutes) * time.Minute
	step := slot + time.Duration(c.BufferMinutes)*time.Minute

	var out []Window
	c.eachOpenDay(func(openAt, closeAt time.Time) {
		for cursor := openAt; !cursor.Add(slot).After(closeAt); cursor = cursor.Add(step) {
			out = append(out, Window{Start: cursor, End: cursor.Add(slot)})
		}
	})
	return out, nil
}

// PreviewCount returns len(GenerateWeek(c)) without materializing the
// windows.
func PreviewCount(c WeekConfig) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	slot := time.Duration(c.SlotMinutes) * time.Minute
	step := slot + time.Duration(c.BufferMinutes)*time.Minute

	count := 0
	c.eachOpenDay(func(openAt, closeAt time.Time) {
		total := closeAt.Sub(openAt)
		if total < slot {
			return
		}
		count += int((total-slot)/step) + 1
	})
	return count, nil
}

// eachOpenDay calls fn with the opening and closing instants of every
// active day in the week.  Instants are built from wall-clock hours so a
// DST transition changes the length of that day only.
func (c WeekConfig) eachOpenDay(fn func(openAt, closeAt time.Time)) {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	active := make(map[int]bool, len(c.Weekdays))
	for _, d := range c.Weekdays {
		active[d] = true
	}
	y, m, d := c.StartDate.In(loc).Date()
	for i := 0; i < 7; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if !active[isoWeekday(day.Weekday())] {
			continue
		}
		openAt := time.Date(y, m, d+i, c.OpenHour, 0, 0, 0, loc)
		closeAt := time.Date(y, m, d+i, c.CloseHour, 0, 0, 0, loc)
		fn(openAt, closeAt)
	}
}

func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}
