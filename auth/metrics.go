package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionEventsTotal event is login, refresh or logout; outcome is the error
// code, or ok.
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_session_events_total",
		Help: "Total number of session transitions by outcome",
	},
	[]string{"event", "outcome"},
)
