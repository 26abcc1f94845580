package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for signup, login and the access guard.
type Metrics struct {
	UsersCreated    prometheus.Counter
	LoginAttempts   *prometheus.CounterVec
	AuthFailures    prometheus.Counter
	GuardRejections *prometheus.CounterVec
}

// New registers auth collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "phonetrack_users_created_total",
			Help: "Total number of users registered",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonetrack_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "phonetrack_auth_failures_total",
			Help: "Total number of rejected credential checks",
		}),
		GuardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "phonetrack_access_denied_total",
			Help: "Requests rejected by the access guard, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementAuthFailures() {
	m.AuthFailures.Inc()
}

// ObserveLogin records a login outcome: success, invalid_credentials or error.
func (m *Metrics) ObserveLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// IncRejected satisfies the access guard's metrics hook.
func (m *Metrics) IncRejected(reason string) {
	m.GuardRejections.WithLabelValues(reason).Inc()
}
