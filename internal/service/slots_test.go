package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/clock"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository/memory"
	"github.com/iliyamo/appointment-booking/internal/schedule"
)

type fakeSlotStore struct {
	SlotStore
	createBulkFn func(ctx context.Context, slots []model.Slot) error
}

func (f *fakeSlotStore) CreateBulk(ctx context.Context, slots []model.Slot) error {
	return f.createBulkFn(ctx, slots)
}

func TestSlotService_CreateSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		minutes int
		wantErr error
	}{
		{"lower bound", 5, nil},
		{"upper bound", 240, nil},
		{"too short", 4, apperr.ErrInvalidInput},
		{"too long", 241, apperr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSlotService(memory.New(), clock.NewFixed(now))
			start := now.Add(time.Hour)
			slot, err := svc.CreateSlot(context.Background(), start, tt.minutes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := slot.EndTime.Sub(slot.StartTime); got != time.Duration(tt.minutes)*time.Minute {
				t.Fatalf("unexpected duration %v", got)
			}
			if !slot.IsActive || slot.Booked || slot.ID == "" {
				t.Fatalf("unexpected slot %+v", slot)
			}
		})
	}
}

func TestSlotService_CreateSlots(t *testing.T) {
	t.Parallel()

	start := now.Add(time.Hour)
	t.Run("stores all", func(t *testing.T) {
		store := memory.New()
		svc := NewSlotService(store, clock.NewFixed(now))
		in := []SlotInput{
			{StartTime: start, EndTime: start.Add(30 * time.Minute)},
			{StartTime: start.Add(time.Hour), EndTime: start.Add(90 * time.Minute)},
		}
		got, err := svc.CreateSlots(context.Background(), in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 slots, got %d", len(got))
		}
		open, _ := svc.ListOpenSlots(context.Background())
		if len(open) != 2 {
			t.Fatalf("expected 2 open slots, got %d", len(open))
		}
	})

	t.Run("rejects empty and oversize", func(t *testing.T) {
		svc := NewSlotService(memory.New(), clock.NewFixed(now))
		if _, err := svc.CreateSlots(context.Background(), nil); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("expected invalid input for empty list, got %v", err)
		}
		big := make([]SlotInput, MaxBulkSlots+1)
		for i := range big {
			s := start.Add(time.Duration(i) * time.Hour)
			big[i] = SlotInput{StartTime: s, EndTime: s.Add(time.Minute)}
		}
		if _, err := svc.CreateSlots(context.Background(), big); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("expected invalid input for %d slots, got %v", len(big), err)
		}
	})

	t.Run("rejects inverted window without storing", func(t *testing.T) {
		store := memory.New()
		svc := NewSlotService(store, clock.NewFixed(now))
		in := []SlotInput{
			{StartTime: start, EndTime: start.Add(30 * time.Minute)},
			{StartTime: start.Add(time.Hour), EndTime: start.Add(time.Hour)},
		}
		if _, err := svc.CreateSlots(context.Background(), in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
		open, _ := svc.ListOpenSlots(context.Background())
		if len(open) != 0 {
			t.Fatalf("expected nothing stored, got %d", len(open))
		}
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		store := &fakeSlotStore{createBulkFn: func(context.Context, []model.Slot) error { return errors.New("deadlock") }}
		svc := NewSlotService(store, clock.NewFixed(now))
		_, err := svc.CreateSlots(context.Background(), []SlotInput{{StartTime: start, EndTime: start.Add(time.Hour)}})
		if !errors.Is(err, apperr.ErrUnavailable) {
			t.Fatalf("expected unavailable, got %v", err)
		}
	})
}

func TestSlotService_GenerateAndPreview(t *testing.T) {
	t.Parallel()

	startDate := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) // Monday
	cfg := schedule.DefaultWeekConfig(startDate, time.UTC)

	var stored int
	store := &fakeSlotStore{createBulkFn: func(_ context.Context, slots []model.Slot) error {
		stored = len(slots)
		return nil
	}}
	svc := NewSlotService(store, clock.NewFixed(now))

	preview, err := svc.PreviewSlots(cfg)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	slots, err := svc.GenerateSlots(context.Background(), cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if preview != 60 || len(slots) != 60 || stored != 60 {
		t.Fatalf("expected 60 everywhere, got preview=%d generated=%d stored=%d", preview, len(slots), stored)
	}

	bad := cfg
	bad.CloseHour = bad.OpenHour
	if _, err := svc.GenerateSlots(context.Background(), bad); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	dense := cfg
	dense.Weekdays = []int{1, 2, 3, 4, 5, 6, 7}
	dense.OpenHour, dense.CloseHour, dense.SlotMinutes = 0, 24, 5
	if _, err := svc.GenerateSlots(context.Background(), dense); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for oversized week, got %v", err)
	}
}

func TestSlotService_DeleteGuard(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedSlot(t, store, "booked", now.Add(time.Hour))
	seedSlot(t, store, "free", now.Add(2*time.Hour))
	slots := NewSlotService(store, clock.NewFixed(now))
	bookings := NewBookingService(store, store, clock.NewFixed(now), logger.Discard())

	if _, err := bookings.Book(context.Background(), validInput("booked")); err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := slots.DeleteSlot(context.Background(), "booked"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := slots.DeleteSlot(context.Background(), "free"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := slots.DeleteSlot(context.Background(), "free"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	open, err := slots.ListOpenSlots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open slots, got %+v", open)
	}
	upcoming, err := slots.ListUpcomingSlots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 || upcoming[0].Booking == nil {
		t.Fatalf("expected the booked slot with its booking, got %+v", upcoming)
	}
}

func TestSlotService_Horizons(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedSlot(t, store, "past", now.Add(-time.Hour))
	seedSlot(t, store, "day3", now.Add(3*24*time.Hour))
	seedSlot(t, store, "day10", now.Add(10*24*time.Hour))
	seedSlot(t, store, "day40", now.Add(40*24*time.Hour))
	svc := NewSlotService(store, clock.NewFixed(now), WithHorizons(7, 30))

	open, _ := svc.ListOpenSlots(context.Background())
	if len(open) != 1 || open[0].ID != "day3" {
		t.Fatalf("unexpected open slots: %+v", open)
	}
	upcoming, _ := svc.ListUpcomingSlots(context.Background())
	if len(upcoming) != 2 || upcoming[1].ID != "day10" {
		t.Fatalf("unexpected upcoming slots: %+v", upcoming)
	}
}
