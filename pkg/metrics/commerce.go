package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Aggregate labels.
const (
	AggregateCart        = "cart"
	AggregateOrder       = "order"
	AggregateTransaction = "transaction"
)

// CommerceMetrics counts state transitions and rejected commerce operations.
type CommerceMetrics struct {
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	confirmReplay prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_state_transitions_total",
		Help: "Committed state transitions by aggregate.",
	}, []string{"aggregate", "from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_operation_rejections_total",
		Help: "Commerce operations rejected with a typed error.",
	}, []string{"operation", "code"})
	confirmReplay := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commerce_payment_confirm_replays_total",
		Help: "Payment confirmations answered from an already applied reference.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_operation_duration_seconds",
		Help:    "Duration of commerce operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, rejections, confirmReplay, duration)
	return &CommerceMetrics{
		transitions:   transitions,
		rejections:    rejections,
		confirmReplay: confirmReplay,
		duration:      duration,
	}
}

// Transition records a committed move between two states.
func (m *CommerceMetrics) Transition(aggregate, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(aggregate), normalizeLabel(from), normalizeLabel(to)).Inc()
}

// Rejected records an operation that failed with the given error code.
func (m *CommerceMetrics) Rejected(operation, code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// ConfirmReplayed records an idempotent confirm replay.
func (m *CommerceMetrics) ConfirmReplayed() {
	if m == nil || m.confirmReplay == nil {
		return
	}
	m.confirmReplay.Inc()
}

// ObserveDuration records how long an operation took.
func (m *CommerceMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
