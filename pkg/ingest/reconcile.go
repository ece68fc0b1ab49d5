package ingest

import (
	"github.com/chronicle-go/chronicle/pkg/types"
)

// pruningSlot computes pruning_slot = first slot of the node's pruning
// epoch (§4.1 step 2), using the slots-per-epoch count from the
// canonical protocol parameters.
func pruningSlot(status types.NodeStatus, nodeCfg types.NodeConfiguration) (types.SlotIndex, error) {
	latest, ok := nodeCfg.Latest()
	if !ok {
		return 0, &types.CorruptState{Reason: "no protocol parameters reported by node"}
	}
	return types.PruningSlot(status.PruningEpoch, latest.SlotsPerEpoch), nil
}

// determineStartIndex implements §4.1 step 3. latestCommitted is nil when
// the committed-slot store is empty.
func determineStartIndex(status types.NodeStatus, nodeCfg types.NodeConfiguration, latestCommitted *types.CommittedSlot, syncStartSlot types.SlotIndex) (types.SlotIndex, error) {
	prune, err := pruningSlot(status, nodeCfg)
	if err != nil {
		return 0, err
	}

	var startIndex types.SlotIndex
	if latestCommitted != nil {
		L := latestCommitted.SlotIndex
		if prune > L {
			return 0, &types.SyncSlotGap{Start: L + 1, End: prune}
		}
		if status.LastAcceptedBlockSlot < L {
			return 0, &types.SyncSlotIndexMismatch{Node: status.LastAcceptedBlockSlot, DB: L}
		}
		startIndex = L + 1
	} else {
		startIndex = syncStartSlot
		if prune > startIndex {
			startIndex = prune
		}
	}

	if startIndex == nodeCfg.GenesisSlot {
		startIndex++
	}
	return startIndex, nil
}

// checkNetworkChanged implements §4.1 step 5: fail fatally if the stored
// network name and the node's canonical network name differ.
func checkNetworkChanged(stored, current types.NodeConfiguration) error {
	storedLatest, ok := stored.Latest()
	if !ok {
		return nil
	}
	currentLatest, ok := current.Latest()
	if !ok {
		return &types.CorruptState{Reason: "no protocol parameters reported by node"}
	}
	if storedLatest.NetworkName != currentLatest.NetworkName {
		return &types.NetworkChanged{Old: storedLatest.NetworkName, New: currentLatest.NetworkName}
	}
	return nil
}

// unspentIndexTracker enforces the uniform-tag check §4.1 step 4 requires
// of the bootstrap stream: the first record establishes the expected
// ledger index, every subsequent record must match it.
type unspentIndexTracker struct {
	expected types.SlotIndex
	seen     bool
}

func (t *unspentIndexTracker) check(found types.SlotIndex) error {
	if !t.seen {
		t.expected = found
		t.seen = true
		return nil
	}
	if found != t.expected {
		return &types.InvalidUnspentOutputIndex{Found: found, Expected: t.expected}
	}
	return nil
}
