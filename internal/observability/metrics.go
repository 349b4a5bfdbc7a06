package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ReactionsTotal counts reaction toggles by outcome (added, switched, retracted).
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_reactions_total",
		Help: "Total reaction toggles by outcome",
	}, []string{"action"})

	// CommentsTotal counts comment mutations by action.
	CommentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_comments_total",
		Help: "Total comment mutations by action",
	}, []string{"action"})

	// ModerationActionsTotal counts moderation workflow transitions.
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_moderation_actions_total",
		Help: "Total moderation actions by type",
	}, []string{"action"})

	// ConsistencyAlarms counts derived counters found drifted from their source rows.
	ConsistencyAlarms = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_consistency_alarms_total",
		Help: "Total consistency alarms by counter",
	}, []string{"counter"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_cache_lookups_total",
		Help: "Total cache-aside lookups by key and result",
	}, []string{"key", "result"})
)
