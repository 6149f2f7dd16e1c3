package revocation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal operation is revoke or check; outcome is success, failure, hit, miss or stale.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_revocation_operations_total",
			Help: "Total number of revocation store operations",
		},
		[]string{"operation", "outcome"},
	)

	BreakerStateChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_revocation_breaker_transitions_total",
			Help: "Revocation store circuit breaker transitions by new state",
		},
		[]string{"state"},
	)
)
