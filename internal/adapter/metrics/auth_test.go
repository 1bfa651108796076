package metrics

import (
	"testing"
	"time"

	"github.com/adala-wanyande/afyaone/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	m.SessionResolved("offline", 30*time.Millisecond)
	m.SignInFinished("success")
	m.SignInFinished("rejected")
	m.SignInFinished("rejected")
	m.PasswordResetFinished("accepted")
	m.ModeChanged(domain.ModeLoading, domain.ModeLoginPrompt)
	m.SetBreakerState(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionResolutions.WithLabelValues("offline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignIns.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignIns.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PasswordResets.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModeTransitions.WithLabelValues("loading", "login")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ResolveDuration))
}

func TestAuthMetrics_NilIsNoop(t *testing.T) {
	var m *AuthMetrics
	assert.NotPanics(t, func() {
		m.SessionResolved("authenticated", time.Millisecond)
		m.SignInFinished("success")
		m.PasswordResetFinished("accepted")
		m.ModeChanged(domain.ModeLoading, domain.ModeAppShell)
		m.SetBreakerState(0)
	})
}
