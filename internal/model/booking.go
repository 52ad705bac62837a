package model

import "time"

// Booking records a customer's claim on exactly one slot.  There is at
// most one booking per slot; the storage layer enforces this with a
// unique constraint on SlotID.  Bookings are never mutated.
type Booking struct {
	ID              string    `json:"id"`
	SlotID          string    `json:"slot_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerContact string    `json:"customer_contact"`
	CustomerPhone   *string   `json:"customer_phone"` // E.164 or nil
	SMSOptIn        bool      `json:"sms_opt_in"`
	Note            *string   `json:"note"`
	CreatedAt       time.Time `json:"created_at"`
}

// SlotTimes is the slice of a slot shown next to a booking.
type SlotTimes struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// BookingWithSlot is a booking joined with the times of its slot.
type BookingWithSlot struct {
	Booking
	Slot SlotTimes `json:"slot"`
}
