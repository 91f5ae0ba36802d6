package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Escalation results.
const (
	EscalationScheduled = "scheduled"
	EscalationBeyond    = "beyond_horizon"
	EscalationFailed    = "failed"
)

// Sweep family results.
const (
	SweepAlerted = "alerted"
	SweepSkipped = "skipped"
	SweepFailed  = "failed"
)

var (
	pushSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "famcal_push_send_total",
			Help: "Push destinations attempted by notification type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	pushSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "famcal_push_send_duration_seconds",
			Help:    "Duration of push provider calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)
	prunedDestinationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "famcal_pruned_destinations_total",
			Help: "Device registrations removed after the provider rejected them.",
		},
	)
	escalationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "famcal_escalation_total",
			Help: "Unassigned-event escalation decisions by result.",
		},
		[]string{"result"},
	)
	scenarioTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "famcal_event_scenario_total",
			Help: "Event writes by classified scenario.",
		},
		[]string{"scenario"},
	)
	sweepFamilyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "famcal_sweep_family_total",
			Help: "Families visited by the daily unassigned sweep by result.",
		},
		[]string{"result"},
	)
)

// ObservePush records one provider call and its per-destination outcomes.
func ObservePush(notificationType string, outcomes map[string]int, elapsed time.Duration) {
	pushSendDuration.WithLabelValues(notificationType).Observe(elapsed.Seconds())

	for outcome, count := range outcomes {
		pushSendTotal.WithLabelValues(notificationType, outcome).Add(float64(count))
	}
}

// AddPruned counts removed device registrations.
func AddPruned(count int) {
	prunedDestinationsTotal.Add(float64(count))
}

// IncEscalation counts one escalation decision.
func IncEscalation(result string) {
	escalationTotal.WithLabelValues(result).Inc()
}

// IncScenario counts one classified event write.
func IncScenario(scenario string) {
	scenarioTotal.WithLabelValues(scenario).Inc()
}

// IncSweepFamily counts one family visited by the sweep.
func IncSweepFamily(result string) {
	sweepFamilyTotal.WithLabelValues(result).Inc()
}
