package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Roster actions used as metric labels.
const (
	ActionSignup     = "signup"
	ActionUnregister = "unregister"
)

// Outcomes used as metric labels.
const (
	OutcomeOK                = "ok"
	OutcomeNotFound          = "not_found"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeCapacityReached   = "capacity_reached"
	OutcomeNotRegistered     = "not_registered"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

// unknownActivity replaces caller-supplied names that match no activity so
// label cardinality stays bounded by the catalog.
const unknownActivity = "_unknown"

var (
	rosterChangeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "registry",
		Name:      "roster_changes_total",
		Help:      "Signup and unregister attempts grouped by activity and outcome.",
	}, []string{"action", "activity", "outcome"})

	rosterSizeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "clubs",
		Subsystem: "registry",
		Name:      "roster_size",
		Help:      "Current number of participants per activity.",
	}, []string{"activity"})

	eventsDroppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubs",
		Subsystem: "registry",
		Name:      "events_dropped_total",
		Help:      "Roster events that could not be handed to the publisher.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(rosterChangeCounter, rosterSizeGauge, eventsDroppedCounter)
}

// RecordRosterChange counts a signup or unregister attempt.
func RecordRosterChange(action, activity, outcome string) {
	if outcome == OutcomeNotFound {
		activity = unknownActivity
	}
	rosterChangeCounter.WithLabelValues(action, activity, outcome).Inc()
}

// RecordRosterSize sets the roster size gauge for an activity.
func RecordRosterSize(activity string, size int) {
	rosterSizeGauge.WithLabelValues(activity).Set(float64(size))
}

// RecordEventDropped counts a roster event the publisher refused.
func RecordEventDropped(kind string) {
	eventsDroppedCounter.WithLabelValues(kind).Inc()
}

// RosterChanges exposes the counter for tests.
func RosterChanges(action, activity, outcome string) prometheus.Counter {
	if outcome == OutcomeNotFound {
		activity = unknownActivity
	}
	return rosterChangeCounter.WithLabelValues(action, activity, outcome)
}
