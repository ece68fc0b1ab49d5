package ingest

import (
	"context"
	"fmt"

	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/chronicle-go/chronicle/pkg/upstream"
	"github.com/google/uuid"
)

// bootstrap implements §4.1 step 4: clear every store, drain the
// upstream's unspent-output snapshot (checking every record is tagged
// with the same ledger index), insert it in parallel chunks of at most
// batchSize, then persist the starting index and node configuration.
func bootstrap(ctx context.Context, store storage.Store, client upstream.Client, nodeCfg types.NodeConfiguration, startIndex types.SlotIndex, batchSize int, broker *events.Broker) error {
	logger := log.WithComponent("ingest-bootstrap")
	timer := metrics.NewTimer()

	if err := store.TruncateAll(); err != nil {
		return fmt.Errorf("bootstrap: clear stores: %w", err)
	}

	recordCh, errCh := client.UnspentOutputs(ctx)

	var tracker unspentIndexTracker
	var outputs []types.LedgerOutput
	for rec := range recordCh {
		if err := tracker.check(rec.LatestCommitmentId.SlotIndex); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		outputs = append(outputs, rec.Output)
	}
	if err := drainErr(errCh); err != nil {
		return fmt.Errorf("bootstrap: unspent outputs stream: %w", err)
	}

	if err := fanOut(len(outputs), batchSize, func(start, end int) error {
		batch := outputs[start:end]
		if err := store.InsertUnspentOutputs(batch); err != nil {
			return fmt.Errorf("insert unspent outputs [%d:%d]: %w", start, end, err)
		}
		records := make([]types.LedgerUpdateRecord, 0, len(batch))
		for _, o := range batch {
			if o.Address != "" {
				records = append(records, types.NewCreatedRecord(o))
			}
		}
		if err := store.InsertLedgerUpdateRecords(records); err != nil {
			return fmt.Errorf("insert ledger update records [%d:%d]: %w", start, end, err)
		}
		metrics.BootstrapOutputsInsertedTotal.Add(float64(len(batch)))
		return nil
	}); err != nil {
		return fmt.Errorf("bootstrap: write unspent outputs: %w", err)
	}

	nodeCfg.StartingIndex = startIndex
	if err := store.SaveNodeConfiguration(nodeCfg); err != nil {
		return fmt.Errorf("bootstrap: save node configuration: %w", err)
	}

	timer.ObserveDuration(metrics.BootstrapDuration)
	logger.Info().Int("outputs", len(outputs)).Msg("bootstrap completed")

	if broker != nil {
		broker.Publish(&events.Event{
			ID:      uuid.New().String(),
			Type:    events.EventBootstrapCompleted,
			Message: fmt.Sprintf("inserted %d unspent outputs", len(outputs)),
		})
	}
	return nil
}

// drainErr returns the first error sent on errCh, if any, without
// blocking when the producer never sends one.
func drainErr(errCh <-chan error) error {
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
