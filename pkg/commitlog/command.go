package commitlog

import (
	"encoding/json"
	"fmt"

	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/google/uuid"
)

// Op identifies the kind of state change a Command carries.
type Op string

const (
	// OpApplyMilestone is one per-milestone apply (§4.1 step 3): the
	// created/consumed outputs, the ledger-update rows they project to,
	// the blocks observed in the slot, and the resulting committed slot,
	// applied to the stores in one FSM.Apply call.
	OpApplyMilestone Op = "apply_milestone"

	// OpTruncateAll clears every collection through the commit log.
	// Bootstrap does not use it; it calls storage.Store.TruncateAll directly.
	OpTruncateAll Op = "truncate_all"
)

// Command is the envelope written to the raft log. Data carries the
// op-specific payload so FSM.Apply can dispatch without a type switch over
// concrete structs.
type Command struct {
	Op   Op              `json:"op"`
	Data json.RawMessage `json:"data"`
}

// ApplyMilestoneCommand is the payload for OpApplyMilestone. CommandId is
// a fresh UUID per command, set by NewApplyMilestoneCommand; it plays no
// role in FSM.Apply itself.
type ApplyMilestoneCommand struct {
	CommandId     string
	Created       []types.LedgerOutput
	Consumed      []types.LedgerSpent
	LedgerUpdates []types.LedgerUpdateRecord
	Blocks        []*types.BlockDocument
	CommittedSlot types.CommittedSlot
}

// NewApplyMilestoneCommand builds the raft-log envelope for one milestone
// apply, generating a fresh correlation id.
func NewApplyMilestoneCommand(created []types.LedgerOutput, consumed []types.LedgerSpent, updates []types.LedgerUpdateRecord, blocks []*types.BlockDocument, committed types.CommittedSlot) (Command, error) {
	payload := ApplyMilestoneCommand{
		CommandId:     uuid.New().String(),
		Created:       created,
		Consumed:      consumed,
		LedgerUpdates: updates,
		Blocks:        blocks,
		CommittedSlot: committed,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("marshal apply milestone command: %w", err)
	}
	return Command{Op: OpApplyMilestone, Data: data}, nil
}

// NewTruncateAllCommand builds the raft-log envelope for a full truncation.
func NewTruncateAllCommand() Command {
	return Command{Op: OpTruncateAll}
}
