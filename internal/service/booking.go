package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/appointment-booking/internal/apperr"
	"github.com/iliyamo/appointment-booking/internal/clock"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/metrics"
	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/repository"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

// WhenLayout renders a slot start in confirmations and notifications,
// e.g. "Wed, Mar 4, 10:00 AM".
const WhenLayout = "Mon, Jan 2, 3:04 PM"

const (
	defaultNotifyTimeout = 15 * time.Second
	defaultRecentLimit   = 200
	defaultRecentDays    = 60
)

// Caller-facing messages.
const (
	msgInvalidBooking  = "Invalid booking info:"
	msgSlotNotFound    = "Slot not found."
	msgSlotUnavailable = "This slot is not available."
	msgSlotPassed      = "That time already passed."
	msgSlotTaken       = "This slot was just booked by someone else. Try another one."
	msgBookingFailed   = "Booking failed (server/database). Check logs."
)

// BookingInput is the customer's submission.
type BookingInput struct {
	SlotID          string `json:"slot_id" validate:"required,max=64"`
	CustomerName    string `json:"customer_name" validate:"min=2,max=80"`
	CustomerContact string `json:"customer_contact" validate:"min=2,max=120"`
	CustomerPhone   string `json:"customer_phone" validate:"max=30"`
	SMSOptIn        bool   `json:"sms_opt_in"`
	Note            string `json:"note" validate:"max=250"`
}

// BookingResult is returned on a successful claim.
type BookingResult struct {
	BookingID string
	SlotID    string
	When      string
	Message   string
}

// BookingService implements the claim protocol on top of a SlotStore and
// a BookingStore.  The protocol is unique-constraint-first: inserting the
// booking row is the claim, and marking the slot booked afterwards is a
// best-effort follow-up.
type BookingService struct {
	slots    SlotStore
	bookings BookingStore
	notifier Notifier
	clock    clock.Clock
	log      *logger.Logger
	loc      *time.Location

	notifyTimeout time.Duration
	recentLimit   int
	recentDays    int

	wg sync.WaitGroup
}

type BookingServiceOption func(*BookingService)

// WithNotifier sets the collaborator told about confirmed bookings.
func WithNotifier(n Notifier) BookingServiceOption {
	return func(s *BookingService) { s.notifier = n }
}

// WithLocation sets the zone confirmation times are rendered in.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRecentBookings overrides the admin recent-bookings limit and horizon.
func WithRecentBookings(limit, horizonDays int) BookingServiceOption {
	return func(s *BookingService) {
		if limit > 0 {
			s.recentLimit = limit
		}
		if horizonDays > 0 {
			s.recentDays = horizonDays
		}
	}
}

// WithNotifyTimeout bounds each asynchronous notification.
func WithNotifyTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewBookingService(slots SlotStore, bookings BookingStore, clk clock.Clock, log *logger.Logger, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		slots:         slots,
		bookings:      bookings,
		clock:         clk,
		log:           log,
		loc:           time.UTC,
		notifyTimeout: defaultNotifyTimeout,
		recentLimit:   defaultRecentLimit,
		recentDays:    defaultRecentDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book claims in.SlotID for the customer.  Exactly one of many concurrent
// calls for the same slot succeeds; the rest fail with a Conflict.
func (s *BookingService) Book(ctx context.Context, in BookingInput) (BookingResult, error) {
	in.SlotID = strings.TrimSpace(in.SlotID)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerContact = strings.TrimSpace(in.CustomerContact)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.Note = strings.TrimSpace(in.Note)

	if err := validateStruct(msgInvalidBooking, in); err != nil {
		metrics.IncBookingAttempt("invalid")
		return BookingResult{}, err
	}

	slot, err := s.slots.Get(ctx, in.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			metrics.IncBookingAttempt("not_found")
			return BookingResult{}, apperr.NotFound(msgSlotNotFound)
		}
		metrics.IncBookingAttempt("error")
		return BookingResult{}, apperr.Unavailable(msgBookingFailed, err)
	}

	now := s.clock.Now()
	if !slot.Offerable(now) {
		metrics.IncBookingAttempt("conflict")
		if slot.IsActive && !slot.Booked {
			return BookingResult{}, apperr.Conflict(msgSlotPassed)
		}
		return BookingResult{}, apperr.Conflict(msgSlotUnavailable)
	}

	booking := model.Booking{
		ID:              uuid.NewString(),
		SlotID:          slot.ID,
		CustomerName:    in.CustomerName,
		CustomerContact: in.CustomerContact,
		SMSOptIn:        in.SMSOptIn,
		CreatedAt:       now,
	}
	phoneE164, phoneOK := utils.NormalizeToE164(in.CustomerPhone)
	if phoneOK {
		booking.CustomerPhone = &phoneE164
	}
	if in.Note != "" {
		note := in.Note
		booking.Note = &note
	}

	if err := s.bookings.InsertUnique(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateBooking):
			metrics.IncBookingAttempt("conflict")
			return BookingResult{}, apperr.Conflict(msgSlotTaken)
		case errors.Is(err, repository.ErrSlotNotFound):
			metrics.IncBookingAttempt("not_found")
			return BookingResult{}, apperr.NotFound(msgSlotNotFound)
		}
		metrics.IncBookingAttempt("error")
		s.log.Error("booking insert failed", "slot_id", slot.ID, "error", err)
		return BookingResult{}, apperr.Unavailable(msgBookingFailed, err)
	}

	if err := s.slots.MarkBooked(ctx, slot.ID); err != nil {
		s.log.Warn("mark slot booked failed", "slot_id", slot.ID, "booking_id", booking.ID, "error", err)
	}
	metrics.IncBookingAttempt("success")

	when := slot.StartTime.In(s.loc).Format(WhenLayout)
	s.dispatch(model.BookingConfirmed{
		BookingID:       booking.ID,
		SlotID:          slot.ID,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		When:            when,
		CustomerName:    booking.CustomerName,
		CustomerContact: booking.CustomerContact,
		CustomerPhone:   phoneE164,
		RawPhone:        in.CustomerPhone,
		SMSOptIn:        booking.SMSOptIn,
		Note:            in.Note,
		ConfirmedAt:     now,
	})

	return BookingResult{
		BookingID: booking.ID,
		SlotID:    slot.ID,
		When:      when,
		Message:   "Booking confirmed for " + when,
	}, nil
}

// dispatch hands ev to the notifier in the background.  The request
// context is not reused: the response may be written before the send.
func (s *BookingService) dispatch(ev model.BookingConfirmed) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.BookingConfirmed(ctx, ev); err != nil {
			s.log.Warn("booking notification failed", "booking_id", ev.BookingID, "error", err)
		}
	}()
}

// Wait blocks until in-flight notifications finish.  Called on shutdown.
func (s *BookingService) Wait() {
	s.wg.Wait()
}

// ListRecentBookings returns the newest bookings whose slots start within
// the recent-bookings horizon from now.
func (s *BookingService) ListRecentBookings(ctx context.Context) ([]model.BookingWithSlot, error) {
	now := s.clock.Now()
	out, err := s.bookings.ListRecent(ctx, now, now.AddDate(0, 0, s.recentDays), s.recentLimit)
	if err != nil {
		return nil, apperr.Unavailable("failed to load bookings", err)
	}
	return out, nil
}
