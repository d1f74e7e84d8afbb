package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus counters for the verification workflow.
type Metrics struct {
	TracksVerified     *prometheus.CounterVec
	CodesIssued        prometheus.Counter
	CodesExpired       prometheus.Counter
	CodesMismatched    prometheus.Counter
	DocumentsSubmitted prometheus.Counter
	ReviewDecisions    *prometheus.CounterVec
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		TracksVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_tracks_verified_total",
			Help: "Completed verifications by track.",
		}, []string{"track"}),
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_phone_codes_issued_total",
			Help: "Phone verification codes generated.",
		}),
		CodesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_phone_codes_expired_total",
			Help: "Phone codes rejected because they outlived their window.",
		}),
		CodesMismatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_phone_codes_mismatched_total",
			Help: "Phone code submissions that did not match the stored code.",
		}),
		DocumentsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_id_documents_submitted_total",
			Help: "Identity document submissions accepted for review.",
		}),
		ReviewDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_id_review_decisions_total",
			Help: "Administrator review decisions by outcome.",
		}, []string{"outcome"}),
	}
}
