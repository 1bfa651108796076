package metrics

import (
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics tracks session resolution, sign-in, password reset and view routing.
// A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	SessionResolutions *prometheus.CounterVec
	ResolveDuration    prometheus.Histogram
	SignIns            *prometheus.CounterVec
	PasswordResets     *prometheus.CounterVec
	ModeTransitions    *prometheus.CounterVec
	BreakerState       prometheus.Gauge
}

// NewAuthMetrics creates and registers auth metrics on the given registry.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		SessionResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "resolutions_total",
			Help:      "Launch session resolutions by outcome.",
		}, []string{"outcome"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent asking the identity service for the current principal.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "Sign-in submissions by result.",
		}, []string{"result"}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "password_resets_total",
			Help:      "Password reset requests by result.",
		}, []string{"result"}),
		ModeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "mode_transitions_total",
			Help:      "View router transitions.",
		}, []string{"from", "to"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "circuit_breaker_state",
			Help:      "Identity service circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.SessionResolutions, m.ResolveDuration, m.SignIns, m.PasswordResets, m.ModeTransitions, m.BreakerState)
	return m
}

func (m *AuthMetrics) SessionResolved(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.SessionResolutions.WithLabelValues(outcome).Inc()
	m.ResolveDuration.Observe(took.Seconds())
}

func (m *AuthMetrics) SignInFinished(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) PasswordResetFinished(result string) {
	if m == nil {
		return
	}
	m.PasswordResets.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) ModeChanged(from, to domain.UIMode) {
	if m == nil {
		return
	}
	m.ModeTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *AuthMetrics) SetBreakerState(v float64) {
	if m == nil {
		return
	}
	m.BreakerState.Set(v)
}
