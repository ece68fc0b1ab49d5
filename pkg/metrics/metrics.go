package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ledger index metrics
	LedgerIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_ledger_index",
			Help: "Latest committed slot index (the ledger index)",
		},
	)

	NodeLatestSlot = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_node_latest_accepted_slot",
			Help: "Latest accepted block slot as last reported by the upstream node",
		},
	)

	SlotLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_slot_lag",
			Help: "Difference between the node's latest accepted slot and our ledger index",
		},
	)

	// Store metrics
	OutputsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_outputs_total",
			Help: "Total number of output documents persisted",
		},
	)

	LedgerUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_ledger_updates_total",
			Help: "Total number of ledger-update index rows written",
		},
	)

	BlocksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_blocks_total",
			Help: "Total number of blocks persisted",
		},
	)

	// Ingestion metrics
	MilestoneApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronicle_milestone_apply_duration_seconds",
			Help:    "Time taken to apply one milestone's ledger update",
			Buckets: prometheus.DefBuckets,
		},
	)

	MilestonesAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_milestones_applied_total",
			Help: "Total number of milestones successfully applied",
		},
	)

	BootstrapOutputsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_bootstrap_outputs_inserted_total",
			Help: "Total number of unspent outputs inserted during bootstrap",
		},
	)

	BootstrapDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronicle_bootstrap_duration_seconds",
			Help:    "Time taken to complete the empty-database bootstrap",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	UpstreamConnectionRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_upstream_connection_retries_total",
			Help: "Total number of reconnect attempts to the upstream node",
		},
	)

	UpstreamHealthy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_upstream_healthy",
			Help: "Whether the upstream node connection is currently healthy (1) or not (0)",
		},
	)

	// Commit log (write-ahead log) metrics
	CommitLogApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronicle_commitlog_apply_duration_seconds",
			Help:    "Time taken for the local FSM to apply one log entry",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_commitlog_last_index",
			Help: "Last log index appended to the local write-ahead log",
		},
	)

	CommitLogAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_commitlog_applied_index",
			Help: "Last log index applied to the stores",
		},
	)

	// Solidifier metrics
	SolidifierSyncedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_solidifier_synced_total",
			Help: "Total number of milestones marked synced, by worker",
		},
		[]string{"worker"},
	)

	SolidifierFetchBackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_solidifier_fetch_back_total",
			Help: "Total number of on-demand fetch-back requests issued, by worker and kind",
		},
		[]string{"worker", "kind"},
	)

	SolidifierQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chronicle_solidifier_queue_depth",
			Help: "Current process_queue depth per solidifier worker",
		},
		[]string{"worker"},
	)

	// Indexer query metrics
	IndexerQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_indexer_queries_total",
			Help: "Total number of indexer queries by output kind",
		},
		[]string{"kind"},
	)

	IndexerQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_indexer_query_duration_seconds",
			Help:    "Indexer query duration in seconds by output kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		LedgerIndex,
		NodeLatestSlot,
		SlotLag,
		OutputsTotal,
		LedgerUpdatesTotal,
		BlocksTotal,
		MilestoneApplyDuration,
		MilestonesAppliedTotal,
		BootstrapOutputsInsertedTotal,
		BootstrapDuration,
		UpstreamConnectionRetriesTotal,
		UpstreamHealthy,
		CommitLogApplyDuration,
		CommitLogIndex,
		CommitLogAppliedIndex,
		SolidifierSyncedTotal,
		SolidifierFetchBackTotal,
		SolidifierQueueDepth,
		IndexerQueriesTotal,
		IndexerQueryDuration,
	)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
