package storage

import (
	"testing"

	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func outputId(b byte) types.OutputId {
	var txID types.TransactionID
	txID[0] = b
	return types.OutputId{TransactionID: txID, Index: 0}
}

func TestInsertUnspentOutputsIgnoresDuplicates(t *testing.T) {
	store := newTestStore(t)
	id := outputId(1)
	out := types.LedgerOutput{OutputId: id, SlotBooked: 10, Address: "addr1"}

	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))

	spent := types.LedgerSpent{Output: out, SlotSpent: 20}
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{spent}))

	// Re-applying the create must not clobber the spend already recorded.
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))

	doc, err := store.GetOutput(id)
	require.NoError(t, err)
	require.NotNil(t, doc.SpentMetadata)
	assert.EqualValues(t, 20, doc.SpentMetadata.SlotSpent)
}

func TestGetOutputWithMetadataHidesFutureSpend(t *testing.T) {
	store := newTestStore(t)
	id := outputId(2)
	out := types.LedgerOutput{OutputId: id, SlotBooked: 10}
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{{Output: out, SlotSpent: 30}}))

	doc, err := store.GetOutputWithMetadata(id, 20)
	require.NoError(t, err)
	assert.Nil(t, doc.SpentMetadata)

	doc, err = store.GetOutputWithMetadata(id, 30)
	require.NoError(t, err)
	assert.NotNil(t, doc.SpentMetadata)
}

func TestIsUnspentAtBoundary(t *testing.T) {
	doc := &types.OutputDocument{SlotBooked: 10, SpentMetadata: &types.SpentMetadata{SlotSpent: 20}}

	tests := []struct {
		ledgerIndex types.SlotIndex
		want        bool
	}{
		{9, false},
		{10, true},
		{19, true},
		{20, false},
		{21, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, doc.IsUnspentAt(tt.ledgerIndex))
	}
}

func TestGetUTXOChangesFiltersByLedgerIndex(t *testing.T) {
	store := newTestStore(t)
	created := outputId(3)
	out := types.LedgerOutput{OutputId: created, SlotBooked: 5}
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{{Output: out, SlotSpent: 5}}))

	change, err := store.GetUTXOChanges(5, 5)
	require.NoError(t, err)
	assert.Len(t, change.Created, 1)
	assert.Len(t, change.Consumed, 1)

	_, err = store.GetUTXOChanges(6, 5)
	assert.Error(t, err)
}

func TestGetUTXOChangesConsumedIndependentOfBookedSlot(t *testing.T) {
	store := newTestStore(t)
	a := types.LedgerOutput{OutputId: outputId(10), SlotBooked: 100, Address: "addr-a"}
	b := types.LedgerOutput{OutputId: outputId(11), SlotBooked: 100, Address: "addr-b"}
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{a, b}))
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{
		{Output: a, SlotSpent: 101},
		{Output: b, SlotSpent: 101},
	}))

	change, err := store.GetUTXOChanges(101, 101)
	require.NoError(t, err)
	assert.Empty(t, change.Created, "nothing was booked at slot 101")
	assert.Len(t, change.Consumed, 2, "both outputs booked at slot 100 were spent at slot 101")

	atBookedSlot, err := store.GetUTXOChanges(100, 101)
	require.NoError(t, err)
	assert.Len(t, atBookedSlot.Created, 2)
	assert.Empty(t, atBookedSlot.Consumed, "neither output was spent in the slot it was booked")
}

func TestUpdateSpentOutputsSecondCallIsNoOp(t *testing.T) {
	store := newTestStore(t)
	out := types.LedgerOutput{OutputId: outputId(12), SlotBooked: 5}
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))
	spent := types.LedgerSpent{Output: out, SlotSpent: 7}
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{spent}))
	require.NoError(t, store.UpdateSpentOutputs([]types.LedgerSpent{spent}))

	change, err := store.GetUTXOChanges(7, 7)
	require.NoError(t, err)
	assert.Len(t, change.Consumed, 1, "a repeated update_spent_outputs call must not duplicate the spent-slot index entry")
}

func TestScanOutputsByBookedSlotPaginates(t *testing.T) {
	store := newTestStore(t)
	for i := byte(1); i <= 5; i++ {
		out := types.LedgerOutput{OutputId: outputId(i), SlotBooked: types.SlotIndex(i)}
		require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{out}))
	}

	matchAll := func(*types.OutputDocument) bool { return true }
	result, err := store.ScanOutputsByBookedSlot(types.IndexerOldest, nil, 2, 100, matchAll)
	require.NoError(t, err)
	assert.Len(t, result.OutputIds, 2)
	require.NotNil(t, result.Cursor)

	cursor := &IndexedOutputsCursor{SlotIndex: result.Cursor.SlotIndex, OutputId: result.Cursor.OutputId, PageSize: 2}
	result2, err := store.ScanOutputsByBookedSlot(types.IndexerOldest, cursor, 2, 100, matchAll)
	require.NoError(t, err)
	assert.Len(t, result2.OutputIds, 2)
	assert.NotEqual(t, result.OutputIds[0], result2.OutputIds[0])
}

func TestTruncateNewerThanRemovesFutureRows(t *testing.T) {
	store := newTestStore(t)
	keep := types.LedgerOutput{OutputId: outputId(1), SlotBooked: 5}
	drop := types.LedgerOutput{OutputId: outputId(2), SlotBooked: 15}
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{keep, drop}))

	removed, err := store.TruncateNewerThan(10)
	require.NoError(t, err)
	assert.Equal(t, 1, removed["outputs"])

	_, err = store.GetOutput(keep.OutputId)
	assert.NoError(t, err)
	_, err = store.GetOutput(drop.OutputId)
	assert.Error(t, err)
}

func TestTruncateAllClearsEverything(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{{OutputId: outputId(1), SlotBooked: 1}}))

	require.NoError(t, store.TruncateAll())

	count, err := store.CountOutputs()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNodeConfigurationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetNodeConfiguration()
	assert.Error(t, err)

	cfg := types.NodeConfiguration{GenesisSlot: 0, StartingIndex: 1}
	require.NoError(t, store.SaveNodeConfiguration(cfg))

	got, err := store.GetNodeConfiguration()
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.StartingIndex)
}
