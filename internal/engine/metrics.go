package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for the notes_processed counter.
const (
	OutcomeApplied        = "applied"
	OutcomeReminder       = "reminder"
	OutcomeUnclassifiable = "unclassifiable"
	OutcomeNoop           = "noop"
	OutcomeDecodeError    = "decode_error"
	OutcomeUnavailable    = "oracle_unavailable"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	NotesProcessed     *prometheus.CounterVec
	DecodeFailures     prometheus.Counter
	RemindersScheduled prometheus.Counter
	MutationsApplied   prometheus.Counter
}

// NewMetrics registers the engine instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ideabank",
			Name:      "notes_processed_total",
			Help:      "Notes processed, labeled by terminal outcome.",
		}, []string{"outcome"}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabank",
			Name:      "decode_failures_total",
			Help:      "Classifier responses unusable after every repair strategy.",
		}),
		RemindersScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabank",
			Name:      "reminders_scheduled_total",
			Help:      "Reminders detected and scheduled without a classifier call.",
		}),
		MutationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabank",
			Name:      "mutations_applied_total",
			Help:      "Structural tree changes persisted.",
		}),
	}
}
