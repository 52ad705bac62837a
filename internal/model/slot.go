package model

import "time"

// Slot represents a bookable time window.  A slot is offerable while
// IsActive is true and no booking references it.  Once claimed by a
// booking it is never offered again; it may only be deleted while
// unbooked.
//
// Fields:
//  ID        – opaque identifier (UUID string).
//  StartTime – when the appointment begins.
//  EndTime   – when the appointment ends (must be after StartTime).
//  IsActive  – whether the slot is currently offered to customers.
//  Booked    – derived flag set by the claim follow-up; the bookings
//              table's unique slot reference is authoritative.
//  CreatedAt – creation timestamp.
type Slot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsActive  bool      `json:"is_active"`
	Booked    bool      `json:"booked"`
	CreatedAt time.Time `json:"created_at"`
}

// Offerable reports whether the slot can still be claimed at instant now.
func (s Slot) Offerable(now time.Time) bool {
	return s.IsActive && !s.Booked && !s.StartTime.Before(now)
}

// SlotWithBooking is the admin view of a slot joined with its booking,
// if one exists.
type SlotWithBooking struct {
	Slot
	Booking *Booking `json:"booking"`
}
