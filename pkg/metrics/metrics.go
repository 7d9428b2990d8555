package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the dedicated registry served at /metrics by the dev server.
var Registry = prometheus.NewRegistry()

var (
	// Auth metrics
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlms_auth_attempts_total",
			Help: "Total number of login/register attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Idle lock metrics
	SessionLocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hlms_session_locks_total",
			Help: "Total number of idle-timeout lock transitions",
		},
	)

	UnlockAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlms_unlock_attempts_total",
			Help: "Total number of lockscreen unlock attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Router guard metrics
	GuardRedirects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlms_guard_redirects_total",
			Help: "Total number of navigation redirects by reason",
		},
		[]string{"reason"},
	)

	// Toast metrics
	ToastsPushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlms_toasts_pushed_total",
			Help: "Total number of toasts pushed by severity",
		},
		[]string{"severity"},
	)

	ToastsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlms_toasts_active",
			Help: "Number of toast entries currently in the queue",
		},
	)
)

func init() {
	Registry.MustRegister(
		AuthAttempts,
		SessionLocks,
		UnlockAttempts,
		GuardRedirects,
		ToastsPushed,
		ToastsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
