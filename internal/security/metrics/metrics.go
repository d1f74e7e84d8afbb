package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus counters for the account-security path.
type Metrics struct {
	Logins          *prometheus.CounterVec
	PasswordChanges prometheus.Counter
	ChangesBlocked  *prometheus.CounterVec
	PolicyUpdates   prometheus.Counter
}

// New creates and registers all security metrics.
func New() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		PasswordChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_password_changes_total",
			Help: "Password changes that completed.",
		}),
		ChangesBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "attest_password_changes_blocked_total",
			Help: "Password change attempts refused, by reason.",
		}, []string{"reason"}),
		PolicyUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attest_security_policy_updates_total",
			Help: "Administrator updates to the security policy.",
		}),
	}
}
