package solidifier

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/google/uuid"
)

// Worker owns one slice of the milestone space (m mod N) and has no
// mutable state shared with any other worker.
type Worker struct {
	index    int
	store    storage.Store
	broker   *events.Broker
	fetchOut chan fetchRequest
	label    string
}

func newWorker(index int, store storage.Store, broker *events.Broker) *Worker {
	return &Worker{
		index:    index,
		store:    store,
		broker:   broker,
		fetchOut: make(chan fetchRequest),
		label:    strconv.Itoa(index),
	}
}

// Process walks state's process queue to completion, parking on a
// fetchRequest whenever a block is missing or unresolved, and returns the
// resulting SyncRecord once every reachable block is visited.
func (w *Worker) Process(ctx context.Context, state *MilestoneState) (*SyncRecord, error) {
	for len(state.ProcessQueue) > 0 {
		metrics.SolidifierQueueDepth.WithLabelValues(w.label).Set(float64(len(state.ProcessQueue)))

		b := state.ProcessQueue[0]
		if _, seen := state.Visited[b]; seen {
			state.popFront()
			continue
		}

		doc, err := w.store.GetBlock(b)
		if err != nil {
			if _, ok := err.(*types.NoResults); !ok {
				return nil, fmt.Errorf("solidifier worker %d: get block %s: %w", w.index, b, err)
			}
			fetched, ferr := w.request(ctx, fetchMessage, b)
			if ferr != nil {
				return nil, ferr
			}
			doc = fetched.doc
			if err := w.store.InsertBlocks([]*types.BlockDocument{doc}); err != nil {
				return nil, fmt.Errorf("solidifier worker %d: cache fetched block: %w", w.index, err)
			}
		}

		if doc.ReferencedByMilestone == nil {
			resp, ferr := w.request(ctx, fetchMetadata, b)
			if ferr != nil {
				return nil, ferr
			}
			doc.ReferencedByMilestone = &resp.milestone
			if err := w.store.InsertBlocks([]*types.BlockDocument{doc}); err != nil {
				return nil, fmt.Errorf("solidifier worker %d: cache resolved metadata: %w", w.index, err)
			}
		}

		state.Visited[b] = struct{}{}
		state.popFront()
		if *doc.ReferencedByMilestone == state.MilestoneIndex {
			state.ProcessQueue = append(state.ProcessQueue, doc.Parents...)
		}
	}

	metrics.SolidifierQueueDepth.WithLabelValues(w.label).Set(0)
	metrics.SolidifierSyncedTotal.WithLabelValues(w.label).Inc()
	if w.broker != nil {
		w.broker.Publish(&events.Event{
			ID:      uuid.New().String(),
			Type:    events.EventSolidifierSynced,
			Message: fmt.Sprintf("milestone %d synced (worker %d)", state.MilestoneIndex, w.index),
		})
	}
	return &SyncRecord{MilestoneIndex: state.MilestoneIndex, Synced: true}, nil
}

// request sends a fetchRequest on fetchOut and waits for the dispatcher's
// reply or ctx cancellation — the park-and-resume continuation, realized
// as one channel round trip rather than a literal function return.
func (w *Worker) request(ctx context.Context, kind fetchKind, id types.BlockId) (fetchResponse, error) {
	metrics.SolidifierFetchBackTotal.WithLabelValues(w.label, string(kind)).Inc()

	req := fetchRequest{kind: kind, blockId: id, resume: make(chan fetchResponse, 1)}
	select {
	case w.fetchOut <- req:
	case <-ctx.Done():
		return fetchResponse{}, ctx.Err()
	}

	select {
	case resp := <-req.resume:
		if resp.err != nil {
			return fetchResponse{}, fmt.Errorf("solidifier worker %d: %s fetch-back for %s: %w", w.index, kind, id, resp.err)
		}
		return resp, nil
	case <-ctx.Done():
		return fetchResponse{}, ctx.Err()
	}
}
