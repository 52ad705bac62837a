package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "booking_attempts_total",
			Help:      "Count of booking attempts by result.",
		},
		[]string{"result"},
	)

	slotsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "slots_created_total",
			Help:      "Count of slots created by the admin, by source.",
		},
		[]string{"source"},
	)

	slotsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "slots_deleted_total",
			Help:      "Count of unbooked slots deleted by the admin.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "booking",
			Name:      "notifications_total",
			Help:      "Count of outbound notifications by recipient and status.",
		},
		[]string{"recipient", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingAttempts, slotsCreated, slotsDeleted, notifications)
	})
}

func IncBookingAttempt(result string) {
	bookingAttempts.WithLabelValues(result).Inc()
}

func AddSlotsCreated(source string, n int) {
	slotsCreated.WithLabelValues(source).Add(float64(n))
}

func IncSlotsDeleted() {
	slotsDeleted.Inc()
}

func IncNotification(recipient, status string) {
	notifications.WithLabelValues(recipient, status).Inc()
}
