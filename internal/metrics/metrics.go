// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login methods
const (
	MethodPassword = "password"
	MethodWallet   = "wallet"
)

// Login outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics contains the service's custom Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	AccountsProvisioned prometheus.Counter
	ProvisionConflicts  prometheus.Counter
	Registrations       prometheus.Counter
}

// New creates and registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_auth_logins_total",
				Help: "Total number of login attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		AccountsProvisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_auth_accounts_provisioned_total",
			Help: "Total number of accounts auto-created on first wallet login",
		}),
		ProvisionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_auth_provision_conflicts_total",
			Help: "Total number of concurrent wallet provisioning races resolved by re-reading",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_auth_registrations_total",
			Help: "Total number of successful registrations",
		}),
	}

	reg.MustRegister(m.LoginsTotal, m.AccountsProvisioned, m.ProvisionConflicts, m.Registrations)

	return m
}

// RecordLogin increments the login counter.
func (m *Metrics) RecordLogin(method, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordProvisioned counts an auto-created wallet account.
func (m *Metrics) RecordProvisioned() {
	if m == nil {
		return
	}
	m.AccountsProvisioned.Inc()
}

// RecordProvisionConflict counts a lost create race.
func (m *Metrics) RecordProvisionConflict() {
	if m == nil {
		return
	}
	m.ProvisionConflicts.Inc()
}

// RecordRegistration counts a registration.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}
