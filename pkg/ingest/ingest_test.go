package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/chronicle-go/chronicle/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testNodeConfig(networkName string) types.NodeConfiguration {
	return types.NodeConfiguration{
		GenesisSlot: 0,
		ProtocolParameters: []types.ProtocolParameters{
			{NetworkName: networkName, SlotsPerEpoch: 8},
		},
	}
}

// fakeClient is an in-memory upstream.Client, independent of the one
// pkg/upstream's own tests define, driving bootstrap/reconcile without a
// real gRPC dial.
type fakeClient struct {
	status  types.NodeStatus
	config  types.NodeConfiguration
	unspent []upstream.UnspentOutputRecord
}

var _ upstream.Client = (*fakeClient)(nil)

func (f *fakeClient) NodeStatus(context.Context) (*types.NodeStatus, error) {
	return &f.status, nil
}
func (f *fakeClient) NodeConfiguration(context.Context) (*types.NodeConfiguration, error) {
	return &f.config, nil
}
func (f *fakeClient) UnspentOutputs(context.Context) (<-chan upstream.UnspentOutputRecord, <-chan error) {
	out := make(chan upstream.UnspentOutputRecord, len(f.unspent))
	errc := make(chan error, 1)
	for _, rec := range f.unspent {
		out <- rec
	}
	close(out)
	return out, errc
}
func (f *fakeClient) LedgerUpdates(context.Context, types.SlotIndex) (<-chan upstream.LedgerUpdate, <-chan error) {
	out := make(chan upstream.LedgerUpdate)
	errc := make(chan error, 1)
	close(out)
	return out, errc
}
func (f *fakeClient) AcceptedBlocks(context.Context, types.SlotIndex) (<-chan upstream.AcceptedBlock, <-chan error) {
	out := make(chan upstream.AcceptedBlock)
	errc := make(chan error, 1)
	close(out)
	return out, errc
}
func (f *fakeClient) ReadMilestone(_ context.Context, index types.SlotIndex) (*upstream.Milestone, error) {
	return &upstream.Milestone{SlotIndex: index}, nil
}
func (f *fakeClient) ReadMilestoneCone(_ context.Context, index types.SlotIndex) (*upstream.MilestoneCone, error) {
	return &upstream.MilestoneCone{SlotIndex: index}, nil
}
func (f *fakeClient) ReadProtocolParameters(_ context.Context, index types.SlotIndex) (*types.ProtocolParameters, error) {
	return &types.ProtocolParameters{StartEpoch: uint64(index)}, nil
}
func (f *fakeClient) Close() error { return nil }

func testOutput(b byte, address types.Address) types.LedgerOutput {
	return types.LedgerOutput{
		OutputId: types.OutputId{TransactionID: types.TransactionID{b}, Index: 0},
		Address:  address,
	}
}

func TestDetermineStartIndexFromEmptyStoreUsesSyncStartOrPruningSlot(t *testing.T) {
	status := types.NodeStatus{PruningEpoch: 2}
	nodeCfg := testNodeConfig("chronicle-mainnet")

	start, err := determineStartIndex(status, nodeCfg, nil, 5)
	require.NoError(t, err)
	// pruningSlot = 2*8 = 16, which exceeds the requested sync start of 5.
	assert.Equal(t, types.SlotIndex(16), start)
}

func TestDetermineStartIndexResumesAfterLatestCommitted(t *testing.T) {
	status := types.NodeStatus{PruningEpoch: 0, LastAcceptedBlockSlot: 50}
	nodeCfg := testNodeConfig("chronicle-mainnet")
	latest := &types.CommittedSlot{SlotIndex: 42}

	start, err := determineStartIndex(status, nodeCfg, latest, 0)
	require.NoError(t, err)
	assert.Equal(t, types.SlotIndex(43), start)
}

func TestDetermineStartIndexRejectsSyncSlotGap(t *testing.T) {
	status := types.NodeStatus{PruningEpoch: 10, LastAcceptedBlockSlot: 200}
	nodeCfg := testNodeConfig("chronicle-mainnet")
	latest := &types.CommittedSlot{SlotIndex: 42}

	_, err := determineStartIndex(status, nodeCfg, latest, 0)
	require.Error(t, err)
	var gapErr *types.SyncSlotGap
	assert.ErrorAs(t, err, &gapErr)
}

func TestDetermineStartIndexRejectsSlotIndexMismatch(t *testing.T) {
	status := types.NodeStatus{PruningEpoch: 0, LastAcceptedBlockSlot: 10}
	nodeCfg := testNodeConfig("chronicle-mainnet")
	latest := &types.CommittedSlot{SlotIndex: 42}

	_, err := determineStartIndex(status, nodeCfg, latest, 0)
	require.Error(t, err)
	var mismatchErr *types.SyncSlotIndexMismatch
	assert.ErrorAs(t, err, &mismatchErr)
}

func TestCheckNetworkChangedDetectsRename(t *testing.T) {
	stored := testNodeConfig("chronicle-mainnet")
	current := testNodeConfig("chronicle-testnet")

	err := checkNetworkChanged(stored, current)
	require.Error(t, err)
	var changedErr *types.NetworkChanged
	assert.ErrorAs(t, err, &changedErr)
}

func TestCheckNetworkChangedAcceptsSameNetwork(t *testing.T) {
	stored := testNodeConfig("chronicle-mainnet")
	current := testNodeConfig("chronicle-mainnet")

	assert.NoError(t, checkNetworkChanged(stored, current))
}

func TestUnspentIndexTrackerRejectsMismatch(t *testing.T) {
	var tracker unspentIndexTracker
	require.NoError(t, tracker.check(100))
	require.NoError(t, tracker.check(100))

	err := tracker.check(101)
	require.Error(t, err)
	var invalidErr *types.InvalidUnspentOutputIndex
	assert.ErrorAs(t, err, &invalidErr)
}

func TestBootstrapInsertsUnspentOutputsAndMarksStartingIndex(t *testing.T) {
	store := newTestStore(t)
	nodeCfg := testNodeConfig("chronicle-mainnet")

	commitment := types.CommitmentId{SlotIndex: 16}
	client := &fakeClient{
		unspent: []upstream.UnspentOutputRecord{
			{Output: testOutput(1, "addr-a"), LatestCommitmentId: commitment, SlotIndex: 16},
			{Output: testOutput(2, "addr-b"), LatestCommitmentId: commitment, SlotIndex: 16},
			{Output: testOutput(3, ""), LatestCommitmentId: commitment, SlotIndex: 16},
		},
	}

	err := bootstrap(context.Background(), store, client, nodeCfg, types.SlotIndex(17), 2, nil)
	require.NoError(t, err)

	count, err := store.CountOutputs()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	saved, err := store.GetNodeConfiguration()
	require.NoError(t, err)
	assert.Equal(t, types.SlotIndex(17), saved.StartingIndex)
}

func TestBootstrapRejectsMixedCommitmentIndices(t *testing.T) {
	store := newTestStore(t)
	nodeCfg := testNodeConfig("chronicle-mainnet")

	client := &fakeClient{
		unspent: []upstream.UnspentOutputRecord{
			{Output: testOutput(1, "addr-a"), LatestCommitmentId: types.CommitmentId{SlotIndex: 16}},
			{Output: testOutput(2, "addr-b"), LatestCommitmentId: types.CommitmentId{SlotIndex: 17}},
		},
	}

	err := bootstrap(context.Background(), store, client, nodeCfg, types.SlotIndex(17), 2, nil)
	require.Error(t, err)
	var invalidErr *types.InvalidUnspentOutputIndex
	assert.ErrorAs(t, err, &invalidErr)
}

func TestBootstrapPublishesCompletionEvent(t *testing.T) {
	store := newTestStore(t)
	nodeCfg := testNodeConfig("chronicle-mainnet")
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	client := &fakeClient{
		unspent: []upstream.UnspentOutputRecord{
			{Output: testOutput(1, "addr-a"), LatestCommitmentId: types.CommitmentId{SlotIndex: 5}, SlotIndex: 5},
		},
	}

	require.NoError(t, bootstrap(context.Background(), store, client, nodeCfg, types.SlotIndex(6), 10, broker))

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventBootstrapCompleted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a bootstrap-completed event on the broker")
	}
}

func TestBuildLedgerUpdateRecordsProjectsCreatedAndConsumed(t *testing.T) {
	update := upstream.LedgerUpdate{
		SlotIndex: 20,
		Created: []types.LedgerOutput{
			testOutput(1, "addr-a"),
			testOutput(2, ""), // no address: excluded, mirroring bootstrap's own filter
		},
		Consumed: []types.LedgerSpent{
			{Output: testOutput(3, "addr-c"), SlotSpent: 20},
		},
	}

	records := buildLedgerUpdateRecords(update, 1)
	assert.Len(t, records, 2)
}

func TestIsTransientClassifiesFatalErrorsAsNonTransient(t *testing.T) {
	fatal := []error{
		&types.NetworkChanged{Old: "a", New: "b"},
		&types.SyncSlotGap{Start: 1, End: 2},
		&types.SyncSlotIndexMismatch{Node: 1, DB: 2},
		&types.InvalidUnspentOutputIndex{Found: 1, Expected: 2},
		&types.InvalidLedgerUpdateCount{},
		&types.InvalidMilestoneState{},
		&types.CorruptState{Reason: "x"},
	}
	for _, err := range fatal {
		assert.False(t, isTransient(err), "%T should not be transient", err)
	}
}

func TestIsTransientClassifiesConnectionErrorsAsTransient(t *testing.T) {
	assert.True(t, isTransient(context.DeadlineExceeded))
}
