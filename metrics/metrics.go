// metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTPIssued counts one-time codes sent, labeled by delivery channel.
	OTPIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pbdna",
		Subsystem: "otp",
		Name:      "issued_total",
		Help:      "Total one-time codes issued",
	}, []string{"channel"})

	// OTPVerifications counts verification outcomes.
	// Labels: result (verified, invalid, expired, too_many_attempts)
	OTPVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pbdna",
		Subsystem: "otp",
		Name:      "verifications_total",
		Help:      "Total OTP verification attempts by result",
	}, []string{"result"})

	// JobsProcessed counts agent jobs by kind and outcome.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pbdna",
		Subsystem: "agents",
		Name:      "jobs_processed_total",
		Help:      "Total content jobs processed by the agent workers",
	}, []string{"kind", "status"})

	// JobDuration measures end-to-end job processing time.
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pbdna",
		Subsystem: "agents",
		Name:      "job_duration_seconds",
		Help:      "Content job processing duration in seconds",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})

	// CacheHits counts Redis result-cache hits and misses.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pbdna",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Result cache lookups by outcome",
	}, []string{"outcome"})
)
