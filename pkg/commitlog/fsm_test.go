package commitlog

import (
	"encoding/json"
	"testing"

	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFSM(t *testing.T) (*FSM, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewFSM(store), store
}

func applyCommand(t *testing.T, fsm *FSM, cmd Command, index uint64) interface{} {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	return fsm.Apply(&raft.Log{Index: index, Data: data})
}

func TestFSMApplyMilestoneIsIdempotent(t *testing.T) {
	fsm, store := newTestFSM(t)

	var txID types.TransactionID
	txID[0] = 1
	id := types.OutputId{TransactionID: txID, Index: 0}
	committed := types.CommittedSlot{SlotIndex: 5}

	cmd, err := NewApplyMilestoneCommand(
		[]types.LedgerOutput{{OutputId: id, SlotBooked: 5}},
		nil,
		[]types.LedgerUpdateRecord{{Address: "addr", SlotIndex: 5, OutputId: id}},
		nil,
		committed,
	)
	require.NoError(t, err)

	result := applyCommand(t, fsm, cmd, 1)
	assert.Nil(t, result)

	// Re-apply (as would happen on a crash-recovery replay) must not error
	// and must not duplicate the output.
	result = applyCommand(t, fsm, cmd, 2)
	assert.Nil(t, result)

	count, err := store.CountOutputs()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := store.GetLatestCommittedSlot()
	require.NoError(t, err)
	assert.EqualValues(t, 5, latest.SlotIndex)
}

func TestFSMApplyUnknownOpErrors(t *testing.T) {
	fsm, _ := newTestFSM(t)
	result := applyCommand(t, fsm, Command{Op: "bogus"}, 1)
	require.NotNil(t, result)
	_, ok := result.(error)
	assert.True(t, ok)
}

func TestFSMApplyTruncateAll(t *testing.T) {
	fsm, store := newTestFSM(t)
	require.NoError(t, store.InsertUnspentOutputs([]types.LedgerOutput{{OutputId: types.OutputId{}, SlotBooked: 1}}))

	result := applyCommand(t, fsm, NewTruncateAllCommand(), 1)
	assert.Nil(t, result)

	count, err := store.CountOutputs()
	require.NoError(t, err)
	assert.Zero(t, count)
}
