package execution

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeExecuted = "executed"
	outcomeDenied   = "denied"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeFailed   = "failed"
)

var (
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_transitions_total",
			Help: "Transition executions by workflow and outcome",
		},
		[]string{"workflow", "outcome"},
	)
	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waypoint_execution_duration_seconds",
			Help:    "Duration of transition executions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"workflow"},
	)
	redispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waypoint_redispatched_events_total",
			Help: "Workflow events dispatched again by recovery",
		},
		[]string{"workflow"},
	)
)

func init() {
	prometheus.MustRegister(transitionsTotal, executionDuration, redispatchedTotal)
}
