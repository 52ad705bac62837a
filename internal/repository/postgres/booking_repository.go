package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository"
)

// BookingRepository is the Postgres booking store.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository returns a BookingRepository backed by pool.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// InsertUnique relies on the UNIQUE (slot_id) constraint: 23505 means the
// slot was already claimed and 23503 means it no longer exists.
func (r *BookingRepository) InsertUnique(ctx context.Context, b model.Booking) error {
	const query = `
INSERT INTO bookings (id, slot_id, customer_name, customer_contact, customer_phone, sms_opt_in, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.SlotID, b.CustomerName, b.CustomerContact, b.CustomerPhone, b.SMSOptIn, b.Note, b.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repository.ErrDuplicateBooking
		case isForeignKeyViolation(err), isInvalidUUID(err):
			return repository.ErrSlotNotFound
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// ListRecent returns up to limit bookings, newest first, whose slots start
// between from and to.
func (r *BookingRepository) ListRecent(ctx context.Context, from, to time.Time, limit int) ([]model.BookingWithSlot, error) {
	const query = `
SELECT b.id::text, b.slot_id::text, b.customer_name, b.customer_contact, b.customer_phone, b.sms_opt_in, b.note, b.created_at,
       s.start_time, s.end_time
FROM bookings b
JOIN slots s ON s.id = b.slot_id
WHERE s.start_time >= $1 AND s.start_time <= $2
ORDER BY b.created_at DESC
LIMIT $3`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent bookings: %w", err)
	}
	defer rows.Close()

	out := []model.BookingWithSlot{}
	for rows.Next() {
		var bw model.BookingWithSlot
		if err := rows.Scan(
			&bw.ID, &bw.SlotID, &bw.CustomerName, &bw.CustomerContact, &bw.CustomerPhone, &bw.SMSOptIn, &bw.Note, &bw.CreatedAt,
			&bw.Slot.StartTime, &bw.Slot.EndTime,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bw.Slot.ID = bw.SlotID
		out = append(out, bw)
	}
	return out, rows.Err()
}
