package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository"
)

// SlotRepository is the Postgres slot store.  Slot ids are UUID columns
// read back as text.
type SlotRepository struct {
	pool *pgxpool.Pool
}

// NewSlotRepository returns a SlotRepository backed by pool.
func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Get returns the slot with the given id, or repository.ErrSlotNotFound.
// Ids that are not valid UUIDs are treated as missing.
func (r *SlotRepository) Get(ctx context.Context, id string) (model.Slot, error) {
	const query = `SELECT id::text, start_time, end_time, is_active, booked, created_at FROM slots WHERE id = $1`
	var s model.Slot
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.StartTime, &s.EndTime, &s.IsActive, &s.Booked, &s.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return model.Slot{}, repository.ErrSlotNotFound
		}
		return model.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

// ListOpen returns active, unbooked slots starting between from and to.
func (r *SlotRepository) ListOpen(ctx context.Context, from, to time.Time) ([]model.Slot, error) {
	const query = `
SELECT s.id::text, s.start_time, s.end_time, s.is_active, s.booked, s.created_at
FROM slots s
LEFT JOIN bookings b ON b.slot_id = s.id
WHERE s.is_active AND b.id IS NULL AND s.start_time >= $1 AND s.start_time <= $2
ORDER BY s.start_time`

	rows, err := r.pool.Query(ctx, query, from, to)
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
	return out, rows.Err()
}

// ListUpcoming returns every slot starting between from and to joined with its
// booking, if any.
func (r *SlotRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]model.SlotWithBooking, error) {
	const query = `
SELECT s.id::text, s.start_time, s.end_time, s.is_active, s.booked, s.created_at,
       b.id::text, b.customer_name, b.customer_contact, b.customer_phone, b.sms_opt_in, b.note, b.created_at
FROM slots s
LEFT JOIN bookings b ON b.slot_id = s.id
WHERE s.start_time >= $1 AND s.start_time <= $2
ORDER BY s.start_time`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list upcoming slots: %w", err)
	}
	defer rows.Close()

	out := []model.SlotWithBooking{}
	for rows.Next() {
		var (
			sw        model.SlotWithBooking
			bookingID *string
			name      *string
			contact   *string
			phone     *string
			optIn     *bool
			note      *string
			createdAt *time.Time
		)
		if err := rows.Scan(
			&sw.ID, &sw.StartTime, &sw.EndTime, &sw.IsActive, &sw.Booked, &sw.CreatedAt,
			&bookingID, &name, &contact, &phone, &optIn, &note, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		if bookingID != nil {
			b := model.Booking{ID: *bookingID, SlotID: sw.ID, CustomerPhone: phone, Note: note}
			if name != nil {
				b.CustomerName = *name
			}
			if contact != nil {
				b.CustomerContact = *contact
			}
			if optIn != nil {
				b.SMSOptIn = *optIn
			}
			if createdAt != nil {
				b.CreatedAt = *createdAt
			}
			sw.Booking = &b
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

// Create inserts a single slot.
func (r *SlotRepository) Create(ctx context.Context, s model.Slot) error {
	return r.CreateBulk(ctx, []model.Slot{s})
}

// CreateBulk inserts the slots in one transaction using a pgx batch.
func (r *SlotRepository) CreateBulk(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `INSERT INTO slots (id, start_time, end_time, is_active, booked, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
		batch := &pgx.Batch{}
		for _, s := range slots {
			batch.Queue(query, s.ID, s.StartTime, s.EndTime, s.IsActive, s.Booked, s.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicateSlot
			}
			return fmt.Errorf("bulk insert slots: %w", err)
		}
		return nil
	})
}

// Delete removes an unbooked slot.  A booked slot yields
// repository.ErrSlotBooked and a missing one repository.ErrSlotNotFound.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM slots WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM bookings WHERE slot_id = $1)`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if isInvalidUUID(err) {
			return repository.ErrSlotNotFound
		}
		if isForeignKeyViolation(err) {
			return repository.ErrSlotBooked
		}
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if !exists {
		return repository.ErrSlotNotFound
	}
	return repository.ErrSlotBooked
}

// MarkBooked flags the slot as booked and no longer active.
func (r *SlotRepository) MarkBooked(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE slots SET is_active = FALSE, booked = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark slot booked: %w", err)
	}
	return nil
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
