package solidifier

import "github.com/chronicle-go/chronicle/pkg/types"

// MilestoneState is the past-cone walk's working set for one milestone:
// the FIFO of block ids still to resolve and the set already visited.
type MilestoneState struct {
	MilestoneIndex types.SlotIndex
	ProcessQueue   []types.BlockId
	Visited        map[types.BlockId]struct{}
}

// NewMilestoneState seeds a walk from a milestone's own parent block ids.
func NewMilestoneState(milestoneIndex types.SlotIndex, parents []types.BlockId) *MilestoneState {
	queue := make([]types.BlockId, len(parents))
	copy(queue, parents)
	return &MilestoneState{
		MilestoneIndex: milestoneIndex,
		ProcessQueue:   queue,
		Visited:        make(map[types.BlockId]struct{}),
	}
}

func (s *MilestoneState) popFront() types.BlockId {
	b := s.ProcessQueue[0]
	s.ProcessQueue = s.ProcessQueue[1:]
	return b
}

// SyncRecord marks a milestone's past cone fully resolved.
type SyncRecord struct {
	MilestoneIndex types.SlotIndex
	Synced         bool
}
