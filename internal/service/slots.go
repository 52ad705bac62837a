package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/clock"
	"github.com/iliyamo/appointment-booking/internal/metrics"
	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository"
	"github.com/iliyamo/appointment-booking/internal/schedule"
)

// MaxBulkSlots caps a single bulk insert or generated week.
const MaxBulkSlots = 500

const (
	defaultOpenHorizonDays  = 7
	defaultAdminHorizonDays = 30
)

// SlotInput is one explicit window in a bulk create.
type SlotInput struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type createSingleInput struct {
	Minutes int `json:"minutes" validate:"gte=5,lte=240"`
}

type createBulkInput struct {
	Slots []SlotInput `json:"slots" validate:"min=1,max=500,dive"`
}

// SlotService covers the customer slot listing and the admin slot
// operations.
type SlotService struct {
	store SlotStore
	clock clock.Clock

	openHorizonDays  int
	adminHorizonDays int
}

type SlotServiceOption func(*SlotService)

// WithHorizons sets the customer and admin listing windows in days.
func WithHorizons(openDays, adminDays int) SlotServiceOption {
	return func(s *SlotService) {
		if openDays > 0 {
			s.openHorizonDays = openDays
		}
		if adminDays > 0 {
			s.adminHorizonDays = adminDays
		}
	}
}

func NewSlotService(store SlotStore, clk clock.Clock, opts ...SlotServiceOption) *SlotService {
	s := &SlotService{
		store:            store,
		clock:            clk,
		openHorizonDays:  defaultOpenHorizonDays,
		adminHorizonDays: defaultAdminHorizonDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOpenSlots returns the bookable slots starting between now and the
// open horizon.
func (s *SlotService) ListOpenSlots(ctx context.Context) ([]model.Slot, error) {
	now := s.clock.Now()
	out, err := s.store.ListOpen(ctx, now, now.AddDate(0, 0, s.openHorizonDays))
	if err != nil {
		return nil, apperr.Unavailable("failed to load slots", err)
	}
	return out, nil
}

// ListUpcomingSlots returns every slot in the admin horizon with its
// booking, if any.
func (s *SlotService) ListUpcomingSlots(ctx context.Context) ([]model.SlotWithBooking, error) {
	now := s.clock.Now()
	out, err := s.store.ListUpcoming(ctx, now, now.AddDate(0, 0, s.adminHorizonDays))
	if err != nil {
		return nil, apperr.Unavailable("failed to load slots", err)
	}
	return out, nil
}

// CreateSlot inserts [start, start+minutes).  minutes must be in [5, 240].
func (s *SlotService) CreateSlot(ctx context.Context, start time.Time, minutes int) (model.Slot, error) {
	if err := validateStruct("Invalid input:", createSingleInput{Minutes: minutes}); err != nil {
		return model.Slot{}, err
	}
	if start.IsZero() {
		return model.Slot{}, apperr.InvalidInput("Bad start time.")
	}
	slot := s.newSlot(start, start.Add(time.Duration(minutes)*time.Minute))
	if err := s.store.Create(ctx, slot); err != nil {
		return model.Slot{}, apperr.Unavailable("failed to create slot", err)
	}
	metrics.AddSlotsCreated("single", 1)
	return slot, nil
}

// CreateSlots inserts 1..500 explicit windows all-or-nothing.
func (s *SlotService) CreateSlots(ctx context.Context, in []SlotInput) ([]model.Slot, error) {
	if err := validateStruct("Invalid bulk slots:", createBulkInput{Slots: in}); err != nil {
		return nil, err
	}
	slots := make([]model.Slot, 0, len(in))
	for i, w := range in {
		if !w.EndTime.After(w.StartTime) {
			return nil, apperr.InvalidInput(fmt.Sprintf("Invalid bulk slots: slot %d ends before it starts", i))
		}
		slots = append(slots, s.newSlot(w.StartTime, w.EndTime))
	}
	if err := s.store.CreateBulk(ctx, slots); err != nil {
		return nil, apperr.Unavailable("failed to create slots", err)
	}
	metrics.AddSlotsCreated("bulk", len(slots))
	return slots, nil
}

// GenerateSlots materializes a week from cfg and stores it in one bulk
// insert.
func (s *SlotService) GenerateSlots(ctx context.Context, cfg schedule.WeekConfig) ([]model.Slot, error) {
	windows, err := schedule.GenerateWeek(cfg)
	if err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if len(windows) == 0 {
		return []model.Slot{}, nil
	}
	if len(windows) > MaxBulkSlots {
		return nil, apperr.InvalidInput(fmt.Sprintf("schedule produces %d slots; at most %d per week", len(windows), MaxBulkSlots))
	}
	slots := make([]model.Slot, 0, len(windows))
	for _, w := range windows {
		slots = append(slots, s.newSlot(w.Start, w.End))
	}
	if err := s.store.CreateBulk(ctx, slots); err != nil {
		return nil, apperr.Unavailable("failed to create slots", err)
	}
	metrics.AddSlotsCreated("generated", len(slots))
	return slots, nil
}

// PreviewSlots returns how many slots GenerateSlots would create.
func (s *SlotService) PreviewSlots(cfg schedule.WeekConfig) (int, error) {
	n, err := schedule.PreviewCount(cfg)
	if err != nil {
		return 0, apperr.InvalidInput(err.Error())
	}
	return n, nil
}

// DeleteSlot removes an unbooked slot.  Booked slots yield a Conflict.
func (s *SlotService) DeleteSlot(ctx context.Context, id string) error {
	if id == "" {
		return apperr.InvalidInput("Missing id.")
	}
	err := s.store.Delete(ctx, id)
	switch {
	case err == nil:
		metrics.IncSlotsDeleted()
		return nil
	case errors.Is(err, repository.ErrSlotBooked):
		return apperr.Conflict("Cannot delete a booked slot.")
	case errors.Is(err, repository.ErrSlotNotFound):
		return apperr.NotFound("Slot not found.")
	}
	return apperr.Unavailable("failed to delete slot", err)
}

func (s *SlotService) newSlot(start, end time.Time) model.Slot {
	return model.Slot{
		ID:        uuid.NewString(),
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		IsActive:  true,
		CreatedAt: s.clock.Now(),
	}
}
