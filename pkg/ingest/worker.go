package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chronicle-go/chronicle/pkg/commitlog"
	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/chronicle-go/chronicle/pkg/upstream"
)

// WorkerConfig is everything Worker.Run needs beyond the store and commit log.
type WorkerConfig struct {
	Url                     string
	ConnectionRetryInterval time.Duration
	SyncStartSlot           types.SlotIndex
	InsertBatchSize         int
	CommitTimeout           time.Duration
}

// Worker drives the full ingestion lifecycle of §4.1: connect,
// reconcile, bootstrap-if-empty, stream-apply, checkpoint. It is the sole
// writer for outputs, ledger-update index rows, block documents, and
// committed-slot rows.
type Worker struct {
	cfg       WorkerConfig
	store     storage.Store
	commitLog *commitlog.CommitLog
	broker    *events.Broker

	// dial is the connection constructor, swappable in tests for a fake
	// upstream.Client without a real gRPC dial.
	dial func(ctx context.Context, addr string, retryInterval time.Duration) (upstream.Client, error)
}

// NewWorker builds a Worker that dials real upstream nodes over gRPC.
func NewWorker(cfg WorkerConfig, store storage.Store, commitLog *commitlog.CommitLog, broker *events.Broker) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     store,
		commitLog: commitLog,
		broker:    broker,
		dial: func(ctx context.Context, addr string, retryInterval time.Duration) (upstream.Client, error) {
			return upstream.Connect(ctx, addr, retryInterval)
		},
	}
}

// Run executes the initialization protocol once, then streams ledger
// updates until ctx is canceled or a fatal error occurs. A transient
// connection loss reconnects and resumes from the last committed slot;
// every other error from §7's taxonomy is fatal and returned to the
// caller, who is expected to restart the process.
func (w *Worker) Run(ctx context.Context) error {
	logger := log.WithComponent("ingest-worker")

	if _, err := storage.RecoverFromCorruption(w.store); err != nil {
		return fmt.Errorf("ingest: corruption recovery: %w", err)
	}

	client, err := w.dial(ctx, w.cfg.Url, w.cfg.ConnectionRetryInterval)
	if err != nil {
		return fmt.Errorf("ingest: connect: %w", err)
	}
	defer client.Close()
	metrics.UpstreamHealthy.Set(1)

	startIndex, err := w.reconcile(ctx, client)
	if err != nil {
		return fmt.Errorf("ingest: reconcile: %w", err)
	}

	logger.Info().Uint32("start_index", uint32(startIndex)).Msg("beginning steady-state stream")

	for {
		if err := w.streamFrom(ctx, client, startIndex); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if !isTransient(err) {
				return fmt.Errorf("ingest: %w", err)
			}

			metrics.UpstreamConnectionRetriesTotal.Inc()
			metrics.UpstreamHealthy.Set(0)
			logger.Warn().Err(err).Msg("upstream stream lost, reconnecting")
			if w.broker != nil {
				w.broker.Publish(&events.Event{Type: events.EventConnectionLost, Message: err.Error()})
			}

			client.Close()
			client, err = w.dial(ctx, w.cfg.Url, w.cfg.ConnectionRetryInterval)
			if err != nil {
				return fmt.Errorf("ingest: reconnect: %w", err)
			}
			metrics.UpstreamHealthy.Set(1)
			if w.broker != nil {
				w.broker.Publish(&events.Event{Type: events.EventConnectionRestored})
			}

			// Resume from the slot after whatever was last durably
			// committed, per §4.1's crash-safety design — re-applying a
			// slot that never checkpointed is a no-op.
			latest, err := w.store.GetLatestCommittedSlot()
			if err == nil {
				startIndex = latest.SlotIndex + 1
			}
			continue
		}
		return nil
	}
}

// reconcile runs §4.1 steps 1-6 up to (but not including) steady-state
// streaming: connect-time status/config, start-index determination,
// bootstrap-if-empty, and network-change detection.
func (w *Worker) reconcile(ctx context.Context, client upstream.Client) (types.SlotIndex, error) {
	status, err := client.NodeStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("node status: %w", err)
	}
	nodeCfg, err := client.NodeConfiguration(ctx)
	if err != nil {
		return 0, fmt.Errorf("node configuration: %w", err)
	}

	existing, err := w.store.GetNodeConfiguration()
	empty := false
	if err != nil {
		// The store reports a missing configuration as CorruptState.
		switch err.(type) {
		case *types.NoResults, *types.CorruptState:
			empty = true
		default:
			return 0, fmt.Errorf("load node configuration: %w", err)
		}
	}

	latestCommitted, err := w.store.GetLatestCommittedSlot()
	if err != nil {
		if _, ok := err.(*types.NoResults); !ok {
			return 0, fmt.Errorf("load latest committed slot: %w", err)
		}
		latestCommitted = nil
	}

	startIndex, err := determineStartIndex(*status, *nodeCfg, latestCommitted, w.cfg.SyncStartSlot)
	if err != nil {
		return 0, err
	}

	if empty {
		if err := bootstrap(ctx, w.store, client, *nodeCfg, startIndex, w.cfg.InsertBatchSize, w.broker); err != nil {
			return 0, err
		}
		return startIndex, nil
	}

	if err := checkNetworkChanged(*existing, *nodeCfg); err != nil {
		return 0, err
	}
	nodeCfg.StartingIndex = existing.StartingIndex
	if err := w.store.SaveNodeConfiguration(*nodeCfg); err != nil {
		return 0, fmt.Errorf("update node configuration: %w", err)
	}
	return startIndex, nil
}

// streamFrom consumes client.LedgerUpdates(ctx, startIndex) to
// completion or failure, applying each milestone in order. It returns nil
// only if the upstream closes the stream cleanly, which does not happen
// in steady-state operation (the context is canceled instead).
func (w *Worker) streamFrom(ctx context.Context, client upstream.Client, startIndex types.SlotIndex) error {
	updateCh, errCh := client.LedgerUpdates(ctx, startIndex)
	for update := range updateCh {
		if err := apply(ctx, w.commitLog, client, update, w.cfg.InsertBatchSize, w.cfg.CommitTimeout, w.broker); err != nil {
			return err
		}
	}
	return drainErr(errCh)
}

// isTransient reports whether err belongs to §7's "transient connection"
// class, the only one the worker retries on its own.
func isTransient(err error) bool {
	switch err.(type) {
	case *types.NetworkChanged, *types.SyncSlotGap, *types.SyncSlotIndexMismatch,
		*types.InvalidUnspentOutputIndex, *types.InvalidLedgerUpdateCount,
		*types.InvalidMilestoneState, *types.CorruptState:
		return false
	default:
		return true
	}
}
