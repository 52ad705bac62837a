// Package service holds the booking claim protocol and the admin slot
// operations.  It depends on storage and notification only through the
// interfaces below, so the MySQL, Postgres and in-memory stores are
// interchangeable.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/appointment-booking/internal/model"
)

// SlotStore is the slot read/write collaborator.
type SlotStore interface {
	Get(ctx context.Context, id string) (model.Slot, error)
	ListOpen(ctx context.Context, from, to time.Time) ([]model.Slot, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]model.SlotWithBooking, error)
	Create(ctx context.Context, s model.Slot) error
	CreateBulk(ctx context.Context, slots []model.Slot) error
	Delete(ctx context.Context, id string) error
	MarkBooked(ctx context.Context, id string) error
}

// BookingStore is the booking read/write collaborator.  InsertUnique must
// be atomic with respect to the slot reference.
type BookingStore interface {
	InsertUnique(ctx context.Context, b model.Booking) error
	ListRecent(ctx context.Context, from, to time.Time, limit int) ([]model.BookingWithSlot, error)
}

// Notifier receives confirmed bookings.  Implementations: the in-process
// notify.Dispatcher and the RabbitMQ queue.Publisher.
type Notifier interface {
	BookingConfirmed(ctx context.Context, ev model.BookingConfirmed) error
}
