package model

import "time"

// BookingConfirmed is emitted after a booking succeeds.  It carries
// everything the notification side needs so that consumers never have
// to query the primary store.
type BookingConfirmed struct {
	BookingID       string    `json:"booking_id"`
	SlotID          string    `json:"slot_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	When            string    `json:"when"` // human-readable StartTime
	CustomerName    string    `json:"customer_name"`
	CustomerContact string    `json:"customer_contact"`
	CustomerPhone   string    `json:"customer_phone,omitempty"` // E.164 when valid
	RawPhone        string    `json:"raw_phone,omitempty"`
	SMSOptIn        bool      `json:"sms_opt_in"`
	Note            string    `json:"note,omitempty"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}
