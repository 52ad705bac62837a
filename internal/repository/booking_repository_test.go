package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/appointment-booking/internal/model"
)

func TestBookingRepo_InsertUnique(t *testing.T) {
	phone := "+15551234567"
	b := model.Booking{
		ID: "bk1", SlotID: "s1", CustomerName: "Ana", CustomerContact: "ana@example.com",
		CustomerPhone: &phone, SMSOptIn: true, CreatedAt: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "ok"},
		{name: "duplicate", execErr: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, wantErr: ErrDuplicateBooking},
		{name: "slot gone", execErr: &mysql.MySQLError{Number: 1452, Message: "Cannot add"}, wantErr: ErrSlotNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, _, bookings := newMock(t)
			exec := mock.ExpectExec("INSERT INTO bookings").
				WithArgs("bk1", "s1", "Ana", "ana@example.com", phone, true, nil, b.CreatedAt)
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := bookings.InsertUnique(context.Background(), b)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("InsertUnique: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBookingRepo_InsertUniqueWrapsOtherErrors(t *testing.T) {
	mock, _, bookings := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("connection reset"))

	err := bookings.InsertUnique(context.Background(), model.Booking{ID: "x", SlotID: "y"})
	if err == nil || errors.Is(err, ErrDuplicateBooking) || errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func TestBookingRepo_ListRecent(t *testing.T) {
	mock, _, bookings := newMock(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(90 * 24 * time.Hour)
	start := from.Add(48 * time.Hour)

	cols := []string{"id", "slot_id", "customer_name", "customer_contact", "customer_phone", "sms_opt_in", "note", "created_at", "start_time", "end_time"}
	mock.ExpectQuery(`ORDER BY b.created_at DESC\s+LIMIT \?`).
		WithArgs(from, to, 200).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("bk2", "s2", "Bo", "bo@example.com", nil, false, "window seat", start, start.Add(time.Hour), start.Add(2*time.Hour)).
			AddRow("bk1", "s1", "Ana", "ana@example.com", "+15551234567", true, nil, from, start, start.Add(time.Hour)))

	got, err := bookings.ListRecent(context.Background(), from, to, 200)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].ID != "bk2" || got[0].Slot.ID != "s2" || got[0].Note == nil || *got[0].Note != "window seat" || got[0].CustomerPhone != nil {
		t.Fatalf("unexpected first booking: %+v", got[0])
	}
	if !got[1].Slot.StartTime.Equal(start) {
		t.Fatalf("unexpected slot start: %v", got[1].Slot.StartTime)
	}
}
