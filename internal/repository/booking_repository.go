package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/appointment-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  The table carries a
// UNIQUE KEY on slot_id; InsertUnique relies on it to make claiming a slot
// a single atomic write.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// InsertUnique writes the booking row.  A duplicate slot_id yields
// ErrDuplicateBooking; a slot_id that no longer exists yields
// ErrSlotNotFound.
func (r *BookingRepo) InsertUnique(ctx context.Context, b model.Booking) error {
	const q = `INSERT INTO bookings (id, slot_id, customer_name, customer_contact, customer_phone, sms_opt_in, note, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.SlotID, b.CustomerName, b.CustomerContact,
		ptrNullString(b.CustomerPhone), b.SMSOptIn, ptrNullString(b.Note), b.CreatedAt.UTC(),
	)
	if err != nil {
		switch mysqlErrNumber(err) {
		case mysqlErrDuplicateEntry:
			return ErrDuplicateBooking
		case mysqlErrNoReferencedRow:
			return ErrSlotNotFound
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// ListRecent returns the newest bookings (at most limit) whose slot starts
// within [from, to], joined with the slot times.
func (r *BookingRepo) ListRecent(ctx context.Context, from, to time.Time, limit int) ([]model.BookingWithSlot, error) {
	const q = `SELECT b.id, b.slot_id, b.customer_name, b.customer_contact, b.customer_phone, b.sms_opt_in, b.note, b.created_at,
	                  s.start_time, s.end_time
	           FROM bookings b
	           JOIN slots s ON s.id = b.slot_id
	           WHERE s.start_time >= ? AND s.start_time <= ?
	           ORDER BY b.created_at DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent bookings: %w", err)
	}
	defer rows.Close()

	out := []model.BookingWithSlot{}
	for rows.Next() {
		var (
			bw    model.BookingWithSlot
			phone sql.NullString
			note  sql.NullString
		)
		err := rows.Scan(
			&bw.ID, &bw.SlotID, &bw.CustomerName, &bw.CustomerContact, &phone, &bw.SMSOptIn, &note, &bw.CreatedAt,
			&bw.Slot.StartTime, &bw.Slot.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bw.CustomerPhone = nullStringPtr(phone)
		bw.Note = nullStringPtr(note)
		bw.Slot.ID = bw.SlotID
		out = append(out, bw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent bookings: %w", err)
	}
	return out, nil
}
