package token

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
		[]string{"kind"},
	)

	// TokenVerificationsTotal outcome is ok, invalid, expired, revoked or store_unavailable.
	TokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Total number of token verifications by outcome",
		},
		[]string{"kind", "outcome"},
	)

	RevocationFailOpenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_revocation_fail_open_total",
			Help: "Verifications that accepted a token because the revocation store was unavailable",
		},
	)
)
