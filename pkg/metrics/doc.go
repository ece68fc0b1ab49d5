/*
Package metrics provides Prometheus metrics collection and exposition for
Chronicle, plus /health, /ready, and /live HTTP handlers that report the
components registered with RegisterComponent/UpdateComponent.

# Metrics catalog

Ledger position:

	chronicle_ledger_index                        gauge
	chronicle_node_latest_accepted_slot            gauge
	chronicle_slot_lag                             gauge

Store:

	chronicle_outputs_total                        gauge
	chronicle_ledger_updates_total                 counter
	chronicle_blocks_total                         gauge

Ingestion:

	chronicle_milestone_apply_duration_seconds     histogram
	chronicle_milestones_applied_total             counter
	chronicle_bootstrap_outputs_inserted_total     counter
	chronicle_bootstrap_duration_seconds           histogram
	chronicle_upstream_connection_retries_total    counter
	chronicle_upstream_healthy                     gauge

Commit log:

	chronicle_commitlog_apply_duration_seconds     histogram
	chronicle_commitlog_last_index                 gauge
	chronicle_commitlog_applied_index              gauge

Solidifier (labeled by worker, and by worker+kind for fetch-backs):

	chronicle_solidifier_synced_total{worker}
	chronicle_solidifier_fetch_back_total{worker,kind}
	chronicle_solidifier_queue_depth{worker}

Indexer (labeled by output kind — basic/account/anchor/foundry/nft/delegation):

	chronicle_indexer_queries_total{kind}
	chronicle_indexer_query_duration_seconds{kind}

# Usage

	timer := metrics.NewTimer()
	err := applyMilestone(slot)
	timer.ObserveDuration(metrics.MilestoneApplyDuration)
	if err == nil {
		metrics.MilestonesAppliedTotal.Inc()
	}

	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
	http.Handle("/ready", metrics.ReadyHandler())

# Collector

Collector polls pkg/storage.Store and the commit log's RaftStats on a
ticker and keeps the gauge-shaped metrics (outputs/blocks/ledger index,
commit log indices) fresh without every write path updating them inline —
counters and histograms are still updated at the call site.

# See also

  - pkg/health for the active Checker/Status machinery; this package's
    health/ready/live handlers do not use it
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
