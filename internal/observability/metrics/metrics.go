package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	AuthActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_activations_total",
			Help: "Total number of account activation attempts by outcome.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of access tokens and activation codes issued.",
		},
		[]string{"flow", "result"},
	)

	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_emails_total",
			Help: "Activation emails by dispatch outcome.",
		},
		[]string{"result"},
	)

	EmailQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_email_queue_depth",
			Help: "Activation emails waiting for a delivery worker.",
		},
	)
)

var registerOnce sync.Once

// MustRegister registers every collector on the default registry with a
// constant service label. Later calls are no-ops, so collectors stay usable
// (unregistered) in tests that never call it.
func MustRegister(serviceName string) {
	registerOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AuthRegistrationsTotal,
			AuthActivationsTotal,
			AuthLoginsTotal,
			TokensIssuedTotal,
			EmailsTotal,
			EmailQueueDepth,
		)
	})
}
