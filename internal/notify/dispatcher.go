// Package notify sends booking confirmations by SMS to the operator and,
// when they opted in, to the customer.  Sending is best effort: failures
// are logged and counted but never change a booking's outcome.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/appointment-booking/internal/config"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/metrics"
	"github.com/iliyamo/appointment-booking/internal/model"
	"github.com/iliyamo/appointment-booking/internal/utils"
)

const (
	recipientOperator = "operator"
	recipientCustomer = "customer"
)

// Dispatcher turns a BookingConfirmed event into SMS messages.
type Dispatcher struct {
	sender   Sender
	operator string
	customer bool
	log      *logger.Logger
}

// New builds a Dispatcher from configuration.  Without the enable flag and
// a complete set of Twilio credentials every send is a silent no-op.
func New(cfg config.NotifyConfig, log *logger.Logger) *Dispatcher {
	if !cfg.Active() {
		log.Info("sms notifications disabled")
		return NewDispatcher(nopSender{}, "", false, log)
	}
	sender := NewTwilioSender(cfg.AccountSID, cfg.AuthToken, cfg.FromNumber)
	return NewDispatcher(sender, cfg.OperatorNumber, cfg.CustomerSMS, log)
}

// NewDispatcher wires an explicit sender.  operator may be empty.
func NewDispatcher(sender Sender, operator string, customer bool, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, operator: operator, customer: customer, log: log}
}

// BookingConfirmed notifies the operator (when configured) and the
// customer (when customer SMS is on, they opted in and the phone is valid
// E.164).  Every failed send is logged; the joined error is returned so a
// queue consumer can reject the delivery.
func (d *Dispatcher) BookingConfirmed(ctx context.Context, ev model.BookingConfirmed) error {
	var errs []error

	if d.operator != "" {
		if err := d.send(ctx, recipientOperator, d.operator, OperatorMessage(ev), ev); err != nil {
			errs = append(errs, err)
		}
	}

	if d.customer && ev.SMSOptIn && utils.IsE164(ev.CustomerPhone) {
		if err := d.send(ctx, recipientCustomer, ev.CustomerPhone, CustomerMessage(ev), ev); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) send(ctx context.Context, recipient, to, body string, ev model.BookingConfirmed) error {
	if err := d.sender.Send(ctx, to, body); err != nil {
		metrics.IncNotification(recipient, "failed")
		d.log.Error("sms send failed", "recipient", recipient, "booking_id", ev.BookingID, "error", err)
		return fmt.Errorf("%s sms: %w", recipient, err)
	}
	metrics.IncNotification(recipient, "sent")
	return nil
}

// OperatorMessage is the text sent to the operator for a new booking.
func OperatorMessage(ev model.BookingConfirmed) string {
	var b strings.Builder
	b.WriteString("New booking ✅\n")
	fmt.Fprintf(&b, "Time: %s\n", ev.When)
	fmt.Fprintf(&b, "Name: %s\n", ev.CustomerName)
	fmt.Fprintf(&b, "Contact: %s", ev.CustomerContact)
	if phone := operatorPhone(ev); phone != "" {
		fmt.Fprintf(&b, "\nPhone: %s", phone)
	}
	if ev.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", ev.Note)
	}
	return b.String()
}

// operatorPhone renders the customer's number for the operator.  US
// numbers get the familiar grouping; other normalized numbers stay in
// E.164 and unparseable input is shown as entered.
func operatorPhone(ev model.BookingConfirmed) string {
	switch {
	case strings.HasPrefix(ev.CustomerPhone, "+1"):
		return utils.FormatPretty(ev.CustomerPhone)
	case ev.CustomerPhone != "":
		return ev.CustomerPhone
	}
	return strings.TrimSpace(ev.RawPhone)
}

// CustomerMessage is the confirmation sent to an opted-in customer.
func CustomerMessage(ev model.BookingConfirmed) string {
	return fmt.Sprintf("Booked! See you at %s. Reply STOP to opt out.", ev.When)
}
