package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AI 메타데이터 생성 지표
var (
	// GenerationAttempts counts pipeline runs by outcome.
	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewspot_ai_generation_attempts_total",
			Help: "AI metadata generation attempts by status and failure reason",
		},
		[]string{"action", "status", "failure_reason", "triggered_by"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brewspot_ai_generation_duration_seconds",
			Help:    "Provider call latency for AI metadata generation",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"action"},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewspot_ai_tokens_total",
			Help: "Tokens consumed by the generation provider",
		},
		[]string{"model"},
	)

	// AuditWriteFailures counts audit entries that never reached the sink.
	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewspot_audit_write_failures_total",
			Help: "Audit log writes that failed and were dropped",
		},
		[]string{"action"},
	)
)

// HTTP 지표
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewspot_api_requests_total",
			Help: "API requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brewspot_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
