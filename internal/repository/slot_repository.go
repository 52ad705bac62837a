package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/appointment-booking/internal/model"
)

// SlotRepo provides data access to the slots table.  All timestamps are
// written and read in UTC (the DSN sets loc=UTC).
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the provided database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `s.id, s.start_time, s.end_time, s.is_active, s.booked, s.created_at`

// Get returns a single slot by ID or ErrSlotNotFound.
func (r *SlotRepo) Get(ctx context.Context, id string) (model.Slot, error) {
	q := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = ?`
	var s model.Slot
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.StartTime, &s.EndTime, &s.IsActive, &s.Booked, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Slot{}, ErrSlotNotFound
		}
		return model.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

// ListOpen returns active, unbooked slots starting within [from, to],
// ordered by start time.  The anti-join against bookings keeps a slot out
// of the listing even when its best-effort booked flag was never set.
func (r *SlotRepo) ListOpen(ctx context.Context, from, to time.Time) ([]model.Slot, error) {
	q := `SELECT ` + slotColumns + `
	      FROM slots s
	      LEFT JOIN bookings b ON b.slot_id = s.id
	      WHERE s.is_active = 1 AND b.id IS NULL
	        AND s.start_time >= ? AND s.start_time <= ?
	      ORDER BY s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	defer rows.Close()

	out := []model.Slot{}
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.StartTime, &s.EndTime, &s.IsActive, &s.Booked, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	return out, nil
}

// ListUpcoming returns every slot starting within [from, to], booked or
// not, joined with its booking when present.
func (r *SlotRepo) ListUpcoming(ctx context.Context, from, to time.Time) ([]model.SlotWithBooking, error) {
	q := `SELECT ` + slotColumns + `,
	             b.id, b.customer_name, b.customer_contact, b.customer_phone, b.sms_opt_in, b.note, b.created_at
	      FROM slots s
	      LEFT JOIN bookings b ON b.slot_id = s.id
	      WHERE s.start_time >= ? AND s.start_time <= ?
	      ORDER BY s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list upcoming slots: %w", err)
	}
	defer rows.Close()

	out := []model.SlotWithBooking{}
	for rows.Next() {
		var (
			sw        model.SlotWithBooking
			bookingID sql.NullString
			name      sql.NullString
			contact   sql.NullString
			phone     sql.NullString
			optIn     sql.NullBool
			note      sql.NullString
			createdAt sql.NullTime
		)
		err := rows.Scan(
			&sw.ID, &sw.StartTime, &sw.EndTime, &sw.IsActive, &sw.Booked, &sw.CreatedAt,
			&bookingID, &name, &contact, &phone, &optIn, &note, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if bookingID.Valid {
			sw.Booking = &model.Booking{
				ID:              bookingID.String,
				SlotID:          sw.ID,
				CustomerName:    name.String,
				CustomerContact: contact.String,
				CustomerPhone:   nullStringPtr(phone),
				SMSOptIn:        optIn.Bool,
				Note:            nullStringPtr(note),
				CreatedAt:       createdAt.Time,
			}
		}
		out = append(out, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list upcoming slots: %w", err)
	}
	return out, nil
}

// Create inserts a single active slot.
func (r *SlotRepo) Create(ctx context.Context, s model.Slot) error {
	const q = `INSERT INTO slots (id, start_time, end_time, is_active, booked, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.StartTime.UTC(), s.EndTime.UTC(), s.IsActive, s.Booked, s.CreatedAt.UTC())
	if err != nil {
		if mysqlErrNumber(err) == mysqlErrDuplicateEntry {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// CreateBulk inserts all slots in one multi-row statement inside a
// transaction: either every slot is stored or none is.  Passing an empty
// slice has no effect and returns nil.
func (r *SlotRepo) CreateBulk(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var q strings.Builder
	q.WriteString(`INSERT INTO slots (id, start_time, end_time, is_active, booked, created_at) VALUES `)
	args := make([]interface{}, 0, len(slots)*6)
	for i, s := range slots {
		if i > 0 {
			q.WriteString(",")
		}
		q.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, s.ID, s.StartTime.UTC(), s.EndTime.UTC(), s.IsActive, s.Booked, s.CreatedAt.UTC())
	}
	if _, err := tx.ExecContext(ctx, q.String(), args...); err != nil {
		if mysqlErrNumber(err) == mysqlErrDuplicateEntry {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("bulk insert slots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	committed = true
	return nil
}

// Delete removes an unbooked slot.  The NOT EXISTS guard and the
// foreign key from bookings make the check and the delete one atomic
// statement.  Returns ErrSlotBooked when a booking references the slot
// and ErrSlotNotFound when no such slot exists.
func (r *SlotRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM slots WHERE id = ? AND NOT EXISTS (SELECT 1 FROM bookings WHERE slot_id = ?)`
	res, err := r.db.ExecContext(ctx, q, id, id)
	if err != nil {
		if mysqlErrNumber(err) == mysqlErrRowIsReferenced {
			return ErrSlotBooked
		}
		return fmt.Errorf("delete slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if exists == 0 {
		return ErrSlotNotFound
	}
	return ErrSlotBooked
}

// MarkBooked flips the slot to booked/inactive.  It is the best-effort
// follow-up of a successful claim; the unique booking row is what
// actually prevents a second claim.
func (r *SlotRepo) MarkBooked(ctx context.Context, id string) error {
	const q = `UPDATE slots SET is_active = 0, booked = 1 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("mark slot booked: %w", err)
	}
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func ptrNullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
