package types

// BaseToken describes the network's native currency for display purposes.
type BaseToken struct {
	Name            string
	TickerSymbol    string
	Unit            string
	Decimals        uint32
	UseMetricPrefix bool
}

// ProtocolParameters is one row of the protocol-parameters history, keyed
// by the slot/epoch it takes effect from. The latest row is canonical for
// bech32 HRP, rent structure, and network name.
type ProtocolParameters struct {
	StartEpoch    uint64
	Version       uint8
	NetworkName   string
	Bech32HRP     string
	SlotsPerEpoch uint64
	RentStructure struct {
		VByteCost   uint32
		VByteFactorKey uint8
		VByteFactorData uint8
	}
}

// NodeConfiguration is the application-state singleton: the node's
// configuration as observed at bootstrap time, plus the starting index
// this process began ingesting from.
type NodeConfiguration struct {
	BaseToken            BaseToken
	ProtocolParameters    []ProtocolParameters // latest first
	GenesisSlot          SlotIndex
	SlotDurationSeconds  uint32
	StartingIndex        SlotIndex
}

// Latest returns the canonical (most recent) protocol parameters, or false
// if none have been recorded yet — a CorruptState condition for any caller
// that requires them.
func (c NodeConfiguration) Latest() (ProtocolParameters, bool) {
	if len(c.ProtocolParameters) == 0 {
		return ProtocolParameters{}, false
	}
	return c.ProtocolParameters[0], true
}

// NodeStatus is the live status reported by get_node_status.
type NodeStatus struct {
	PruningEpoch           uint64
	LatestCommitmentId     CommitmentId
	LastAcceptedBlockSlot  SlotIndex
}

// PruningSlot computes pruning_slot = first slot of the node's pruning
// epoch. The epoch-to-slot conversion is a property of the protocol
// parameters in force at that epoch; callers pass the number of slots per
// epoch alongside, and the result is pruningEpoch * slotsPerEpoch.
func PruningSlot(pruningEpoch uint64, slotsPerEpoch uint64) SlotIndex {
	return SlotIndex(pruningEpoch * slotsPerEpoch)
}
