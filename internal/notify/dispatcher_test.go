package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/appointment-booking/internal/config"
	"github.com/iliyamo/appointment-booking/internal/logger"
	"github.com/iliyamo/appointment-booking/internal/model"
)

type sent struct{ to, body string }

type fakeSender struct {
	mu     sync.Mutex
	sent   []sent
	sendFn func(to string) error
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	f.sent = append(f.sent, sent{to, body})
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(to)
	}
	return nil
}

func event() model.BookingConfirmed {
	return model.BookingConfirmed{
		BookingID:       "bk1",
		When:            "Wed, Mar 4, 10:00 AM",
		CustomerName:    "Ana Lima",
		CustomerContact: "ana@example.com",
		CustomerPhone:   "+12095551212",
		RawPhone:        "209 555 1212",
		SMSOptIn:        true,
		Note:            "fade",
	}
}

func TestDispatcher_BookingConfirmed(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		customer bool
		mutate   func(*model.BookingConfirmed)
		wantTo   []string
	}{
		{name: "operator and customer", operator: "+15550000000", customer: true, wantTo: []string{"+15550000000", "+12095551212"}},
		{name: "no operator configured", customer: true, wantTo: []string{"+12095551212"}},
		{name: "customer sms off", operator: "+15550000000", wantTo: []string{"+15550000000"}},
		{name: "customer not opted in", operator: "+15550000000", customer: true,
			mutate: func(ev *model.BookingConfirmed) { ev.SMSOptIn = false }, wantTo: []string{"+15550000000"}},
		{name: "customer phone invalid", operator: "+15550000000", customer: true,
			mutate: func(ev *model.BookingConfirmed) { ev.CustomerPhone = "" }, wantTo: []string{"+15550000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSender{}
			d := NewDispatcher(s, tt.operator, tt.customer, logger.Discard())
			ev := event()
			if tt.mutate != nil {
				tt.mutate(&ev)
			}
			if err := d.BookingConfirmed(context.Background(), ev); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(s.sent) != len(tt.wantTo) {
				t.Fatalf("expected %d sends, got %+v", len(tt.wantTo), s.sent)
			}
			for i, to := range tt.wantTo {
				if s.sent[i].to != to {
					t.Fatalf("send %d went to %s, want %s", i, s.sent[i].to, to)
				}
			}
		})
	}
}

func TestDispatcher_FailuresAreJoined(t *testing.T) {
	s := &fakeSender{sendFn: func(to string) error {
		if to == "+15550000000" {
			return errors.New("operator unreachable")
		}
		return nil
	}}
	d := NewDispatcher(s, "+15550000000", true, logger.Discard())

	err := d.BookingConfirmed(context.Background(), event())
	if err == nil || !strings.Contains(err.Error(), "operator unreachable") {
		t.Fatalf("expected operator failure, got %v", err)
	}
	if len(s.sent) != 2 {
		t.Fatalf("customer send should still be attempted, got %+v", s.sent)
	}
}

func TestMessages(t *testing.T) {
	op := OperatorMessage(event())
	for _, want := range []string{"Time: Wed, Mar 4, 10:00 AM", "Name: Ana Lima", "Contact: ana@example.com", "Phone: (209) 555-1212", "Note: fade"} {
		if !strings.Contains(op, want) {
			t.Fatalf("operator message missing %q:\n%s", want, op)
		}
	}

	bare := event()
	bare.CustomerPhone, bare.RawPhone, bare.Note = "", "", ""
	if op := OperatorMessage(bare); strings.Contains(op, "Phone:") || strings.Contains(op, "Note:") {
		t.Fatalf("optional lines should be omitted:\n%s", op)
	}

	if got := CustomerMessage(event()); got != "Booked! See you at Wed, Mar 4, 10:00 AM. Reply STOP to opt out." {
		t.Fatalf("unexpected customer message %q", got)
	}
}

func TestOperatorMessagePhone(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		raw        string
		want       string
	}{
		{"us number is grouped", "+12095551212", "1-209-555-1212", "Phone: (209) 555-1212"},
		{"international keeps every digit", "+442079460958", "+44 20 7946 0958", "Phone: +442079460958"},
		{"unparseable shown as entered", "", " ext. 12 ", "Phone: ext. 12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := event()
			ev.CustomerPhone, ev.RawPhone = tt.normalized, tt.raw
			if op := OperatorMessage(ev); !strings.Contains(op, tt.want) {
				t.Fatalf("operator message missing %q:\n%s", tt.want, op)
			}
		})
	}
}

func TestNew_DisabledIsNoop(t *testing.T) {
	d := New(config.NotifyConfig{Enabled: true, AccountSID: "AC123"}, logger.Discard())
	if _, ok := d.sender.(nopSender); !ok {
		t.Fatalf("expected nop sender with incomplete credentials, got %T", d.sender)
	}
	if err := d.BookingConfirmed(context.Background(), event()); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}
