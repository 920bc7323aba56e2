package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of tile requests by response source",
	}, []string{"source"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of tile store hits",
	}, []string{"style"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of tile store misses",
	}, []string{"style"})

	CacheReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_read_errors_total",
		Help: "Total number of tile store reads that failed and were treated as misses",
	})

	CacheStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_stores_total",
		Help: "Total number of tile store write operations",
	})

	CacheStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_store_errors_total",
		Help: "Total number of failed tile store writes",
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_upstream_requests_total",
		Help: "Total number of upstream tile requests",
	}, []string{"style"})

	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_upstream_errors_total",
		Help: "Total number of failed upstream tile requests",
	}, []string{"style", "op"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiles_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"style"})

	ErrorTiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_error_tiles_total",
		Help: "Total number of rendered error tiles",
	})

	PrecacheTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "precache_tasks_total",
		Help: "Total number of background precache fetches scheduled",
	}, []string{"kind"})

	PrecacheFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "precache_failures_total",
		Help: "Total number of background precache fetches that failed",
	})

	PrecacheDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "precache_dropped_total",
		Help: "Total number of precache tasks dropped because the backlog was full",
	})

	PrecacheQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "precache_queue_depth",
		Help: "Number of precache tasks waiting for a worker",
	})

	BulkJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "precache_bulk_jobs_total",
		Help: "Total number of bulk precache sweeps",
	}, []string{"style"})

	BulkTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "precache_bulk_tiles_total",
		Help: "Tiles visited by bulk precache sweeps by outcome",
	}, []string{"outcome"})

	// Redis metrics
	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	}, []string{"operation"})

	RedisPoolStats = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "redis_pool_stats",
		Help: "Redis connection pool statistics",
	}, []string{"stat"})
)
