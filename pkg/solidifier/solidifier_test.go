package solidifier

import (
	"context"
	"testing"
	"time"

	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func blockId(b byte, slot types.SlotIndex) types.BlockId {
	var h [32]byte
	h[0] = b
	return types.BlockId{Hash: h, SlotIndex: slot}
}

// fakeFetcher answers FetchBlock/FetchMetadata from fixed maps, simulating
// an upstream that knows about one block the store has never seen.
type fakeFetcher struct {
	blocks   map[types.BlockId]*types.BlockDocument
	metadata map[types.BlockId]types.SlotIndex
}

func (f *fakeFetcher) FetchBlock(ctx context.Context, id types.BlockId) (*types.BlockDocument, error) {
	doc, ok := f.blocks[id]
	if !ok {
		return nil, &types.NoResults{Query: "fetch block"}
	}
	return doc, nil
}

func (f *fakeFetcher) FetchMetadata(ctx context.Context, id types.BlockId) (types.SlotIndex, error) {
	m, ok := f.metadata[id]
	if !ok {
		return 0, &types.NoResults{Query: "fetch metadata"}
	}
	return m, nil
}

func TestSupervisorSolidifyResolvesMissingParentViaFetcher(t *testing.T) {
	store := newTestStore(t)
	milestone := types.SlotIndex(10)

	root := blockId(1, milestone)
	rootMilestone := milestone
	rootDoc := &types.BlockDocument{
		BlockId:               root,
		SlotIndex:             milestone,
		ReferencedByMilestone: &rootMilestone,
	}
	if err := store.InsertBlocks([]*types.BlockDocument{rootDoc}); err != nil {
		t.Fatalf("seed root block: %v", err)
	}

	missing := blockId(2, milestone-1)
	fetcher := &fakeFetcher{
		blocks: map[types.BlockId]*types.BlockDocument{
			missing: {BlockId: missing, SlotIndex: milestone - 1},
		},
		metadata: map[types.BlockId]types.SlotIndex{
			missing: milestone,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sup := NewSupervisor(ctx, 2, store, fetcher, nil)
	defer sup.Stop()

	state := NewMilestoneState(milestone, []types.BlockId{root, missing})
	record, err := sup.Solidify(ctx, state)
	if err != nil {
		t.Fatalf("Solidify: %v", err)
	}
	if !record.Synced {
		t.Fatal("expected Synced = true")
	}
	if record.MilestoneIndex != milestone {
		t.Fatalf("MilestoneIndex = %d, want %d", record.MilestoneIndex, milestone)
	}

	if _, ok := state.Visited[root]; !ok {
		t.Error("root block not marked visited")
	}
	if _, ok := state.Visited[missing]; !ok {
		t.Error("fetched-back block not marked visited")
	}

	cached, err := store.GetBlock(missing)
	if err != nil {
		t.Fatalf("GetBlock(missing) after fetch-back: %v", err)
	}
	if cached.ReferencedByMilestone == nil || *cached.ReferencedByMilestone != milestone {
		t.Error("fetched-back block's resolved metadata was not cached")
	}
}

func TestSupervisorRoutesByMilestoneModuloWorkerCount(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sup := NewSupervisor(ctx, 3, store, &fakeFetcher{}, nil)
	defer sup.Stop()

	for _, m := range []types.SlotIndex{0, 1, 2, 3} {
		rootMilestone := m
		root := blockId(byte(m+1), m)
		if err := store.InsertBlocks([]*types.BlockDocument{{
			BlockId:               root,
			SlotIndex:             m,
			ReferencedByMilestone: &rootMilestone,
		}}); err != nil {
			t.Fatalf("seed milestone %d: %v", m, err)
		}

		state := NewMilestoneState(m, []types.BlockId{root})
		record, err := sup.Solidify(ctx, state)
		if err != nil {
			t.Fatalf("Solidify(%d): %v", m, err)
		}
		if !record.Synced {
			t.Fatalf("milestone %d: expected Synced = true", m)
		}
	}
}
