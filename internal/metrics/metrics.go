package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coachslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachslot_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReservationCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachslot_reservation_cancellations_total",
			Help: "Reservation cancellations by outcome",
		},
		[]string{"outcome"},
	)

	SlotsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coachslot_slots_published_total",
			Help: "Availability slots created by trainers",
		},
	)

	SlotsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coachslot_slots_skipped_total",
			Help: "Published slots dropped as duplicates",
		},
	)

	SlotsBookedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coachslot_slots_booked_total",
			Help: "Availability slots flipped to booked",
		},
	)

	SlotsReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coachslot_slots_released_total",
			Help: "Availability slots freed by cancellation",
		},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachslot_availability_cache_lookups_total",
			Help: "Availability cache lookups by result",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordReservation counts a create attempt; outcome is "created" or an
// apperr code.
func RecordReservation(outcome string, slots int) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
	if slots > 0 {
		SlotsBookedTotal.Add(float64(slots))
	}
}

func RecordCancellation(outcome string, released int64) {
	ReservationCancellationsTotal.WithLabelValues(outcome).Inc()
	if released > 0 {
		SlotsReleasedTotal.Add(float64(released))
	}
}

func RecordPublish(created, skipped int) {
	SlotsPublishedTotal.Add(float64(created))
	SlotsSkippedTotal.Add(float64(skipped))
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(result).Inc()
}
