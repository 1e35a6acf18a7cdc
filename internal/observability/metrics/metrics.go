package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters exposed on /metrics.
type Metrics struct {
	OrderTransitions     *prometheus.CounterVec
	InvoicesGenerated    prometheus.Counter
	DuplicateCompletions prometheus.Counter
	NotificationResults  *prometheus.CounterVec
	EventHandlerFailures *prometheus.CounterVec
	PushDropped          prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the counters against the given registerer. Tests pass a
// fresh registry so instances never collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrderTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "order_transitions_total",
			Help:      "Service order status transitions by target status.",
		}, []string{"status"}),
		InvoicesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "invoices_generated_total",
			Help:      "Invoices created from completion events.",
		}),
		DuplicateCompletions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "duplicate_completion_events_total",
			Help:      "Completion events suppressed by the invoice uniqueness guard.",
		}),
		NotificationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "notification_results_total",
			Help:      "Notification delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		EventHandlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "event_handler_failures_total",
			Help:      "Domain event handler failures by event and handler.",
		}, []string{"event", "handler"}),
		PushDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fieldforge",
			Name:      "push_events_dropped_total",
			Help:      "Push events dropped because of slow subscribers.",
		}),
	}
}
