package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/chronicle-go/chronicle/pkg/commitlog"
	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/chronicle-go/chronicle/pkg/upstream"
	"github.com/google/uuid"
)

// apply implements §4.1's per-milestone apply, the critical section for
// ordering: it builds the ledger-update-record projections for one
// milestone's created/consumed outputs while concurrently draining that
// slot's accepted-block stream, then commits the created outputs, consumed
// outputs, ledger-update records, blocks, and the committed-slot row in
// one commitLog.Apply call — the single checkpoint that advances the
// ledger index. Nothing here is visible to a reader until that call
// returns.
func apply(ctx context.Context, commitLog *commitlog.CommitLog, client upstream.Client, update upstream.LedgerUpdate, batchSize int, commitTimeout time.Duration, broker *events.Broker) error {
	logger := log.WithComponent("ingest-apply")
	timer := metrics.NewTimer()

	var blocks []*types.BlockDocument
	var blocksErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		blocks, blocksErr = drainAcceptedBlocks(ctx, client, update.SlotIndex)
	}()

	ledgerUpdates := buildLedgerUpdateRecords(update, batchSize)

	<-done
	if blocksErr != nil {
		return fmt.Errorf("apply slot %d: accepted blocks: %w", update.SlotIndex, blocksErr)
	}

	committed := types.CommittedSlot{
		SlotIndex:       update.SlotIndex,
		CommitmentId:    update.CommitmentId,
		CommitmentBytes: update.CommitmentBytes,
	}

	cmd, err := commitlog.NewApplyMilestoneCommand(update.Created, update.Consumed, ledgerUpdates, blocks, committed)
	if err != nil {
		return fmt.Errorf("apply slot %d: build command: %w", update.SlotIndex, err)
	}
	if err := commitLog.Apply(cmd, commitTimeout); err != nil {
		return fmt.Errorf("apply slot %d: %w", update.SlotIndex, err)
	}

	timer.ObserveDuration(metrics.MilestoneApplyDuration)
	logger.Info().
		Uint64("slot_index", uint64(update.SlotIndex)).
		Int("created", len(update.Created)).
		Int("consumed", len(update.Consumed)).
		Int("blocks", len(blocks)).
		Msg("milestone applied")

	if broker != nil {
		broker.Publish(&events.Event{
			ID:   uuid.New().String(),
			Type: events.EventMilestoneApplied,
			Message: fmt.Sprintf("applied slot %d (%d created, %d consumed, %d blocks)",
				update.SlotIndex, len(update.Created), len(update.Consumed), len(blocks)),
		})
	}
	return nil
}

// buildLedgerUpdateRecords projects a milestone's created/consumed outputs
// into their LedgerUpdateRecord rows in parallel chunks of at most
// batchSize, the bounded-parallelism §5 asks of every batch write.
func buildLedgerUpdateRecords(update upstream.LedgerUpdate, batchSize int) []types.LedgerUpdateRecord {
	created := make([]types.LedgerUpdateRecord, len(update.Created))
	_ = fanOut(len(update.Created), batchSize, func(start, end int) error {
		for i := start; i < end; i++ {
			o := update.Created[i]
			if o.Address != "" {
				created[i] = types.NewCreatedRecord(o)
			}
		}
		return nil
	})

	consumed := make([]types.LedgerUpdateRecord, len(update.Consumed))
	_ = fanOut(len(update.Consumed), batchSize, func(start, end int) error {
		for i := start; i < end; i++ {
			consumed[i] = types.NewSpentRecord(update.Consumed[i])
		}
		return nil
	})

	records := make([]types.LedgerUpdateRecord, 0, len(created)+len(consumed))
	for _, r := range created {
		if r.OutputId != (types.OutputId{}) {
			records = append(records, r)
		}
	}
	records = append(records, consumed...)
	return records
}

// drainAcceptedBlocks pulls the per-slot accepted-block stream to
// completion.
func drainAcceptedBlocks(ctx context.Context, client upstream.Client, slotIndex types.SlotIndex) ([]*types.BlockDocument, error) {
	blockCh, errCh := client.AcceptedBlocks(ctx, slotIndex)

	var blocks []*types.BlockDocument
	for b := range blockCh {
		doc := b.Document
		blocks = append(blocks, &doc)
	}
	if err := drainErr(errCh); err != nil {
		return nil, err
	}
	return blocks, nil
}
