package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "learnhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DashboardStatuses counts resolved course statuses by wire value.
	DashboardStatuses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_dashboard_verification_status_total",
		Help: "Resolved dashboard verification statuses",
	}, []string{"status"})

	// DashboardAnomalies counts attempts the resolver could not classify.
	DashboardAnomalies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnhub_dashboard_verification_anomalies_total",
		Help: "Attempts with an unrecognised status seen while resolving dashboards",
	})

	// DashboardCacheLookups counts dashboard cache hits and misses.
	DashboardCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_dashboard_cache_lookups_total",
		Help: "Dashboard cache lookups by result",
	}, []string{"result"})

	// VerificationTransitions counts attempt state changes by operation and result.
	VerificationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_verification_transitions_total",
		Help: "Verification attempt transitions by operation and result",
	}, []string{"operation", "result"})

	// ExpirySweepExpired counts approvals moved to expired by the sweep job.
	ExpirySweepExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "learnhub_expiry_sweep_expired_total",
		Help: "Approved verifications expired by the scheduled sweep",
	})

	// JobRuns counts scheduled job runs by job and result.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})

	// EmailsSent counts outgoing notification e-mails by template and result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learnhub_emails_sent_total",
		Help: "Notification e-mails by template and result",
	}, []string{"template", "result"})
)

// Result labels a metric with ok or error.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
