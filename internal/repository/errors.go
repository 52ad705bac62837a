// Package repository defines the MySQL-backed slot and booking stores and
// the storage sentinels shared by every store implementation.  Callers
// such as the service layer distinguish failure scenarios with errors.Is;
// driver errors are wrapped and never leak their type upward.
package repository

import "errors"

// ErrSlotNotFound is returned when the referenced slot does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrSlotNotFound = errors.New("slot not found")

// ErrDuplicateBooking is returned when a booking insert violates the
// unique constraint on slot_id, i.e. another request already claimed the
// slot.  This is the claim-conflict signal.
var ErrDuplicateBooking = errors.New("slot already has a booking")

// ErrSlotBooked is returned when a delete cannot proceed because a
// booking references the slot.  Handlers should translate this into an
// HTTP 409 response.
var ErrSlotBooked = errors.New("slot is booked")

// ErrDuplicateSlot is returned when a slot insert reuses an existing ID.
var ErrDuplicateSlot = errors.New("slot id already exists")
