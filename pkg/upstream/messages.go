package upstream

import "github.com/chronicle-go/chronicle/pkg/types"

// UnspentOutputRecord is one row of the bootstrap snapshot stream. Every
// record in the stream must carry the same LatestCommitmentId's slot
// index (§4.1 step 4); the bootstrap caller is responsible for checking
// that and failing InvalidUnspentOutputIndex otherwise.
type UnspentOutputRecord struct {
	Output             types.LedgerOutput
	LatestCommitmentId types.CommitmentId
	SlotIndex          types.SlotIndex
}

// ledgerUpdateFrame is the raw wire shape of one event in the four-event
// ledger-update substream protocol (§4.1). Kind selects which of the
// other fields are populated; SlotIndex/CommitmentId/CommitmentBytes ride
// along on Begin and End so the decoded LedgerUpdate can be assembled
// without a second round trip.
type ledgerUpdateFrame struct {
	Kind             string
	CreatedCount     int
	ConsumedCount    int
	Output           *types.LedgerOutput
	Spent            *types.LedgerSpent
	SlotIndex        types.SlotIndex
	CommitmentId     types.CommitmentId
	CommitmentBytes  []byte
}

const (
	frameBegin    = "begin"
	frameCreated  = "created"
	frameConsumed = "consumed"
	frameEnd      = "end"
)

// LedgerUpdate is one fully-decoded milestone's diff, ready for
// per-milestone apply.
type LedgerUpdate struct {
	SlotIndex       types.SlotIndex
	CommitmentId    types.CommitmentId
	CommitmentBytes []byte
	Created         []types.LedgerOutput
	Consumed        []types.LedgerSpent
}

// AcceptedBlock is one row of the per-slot accepted-block stream used to
// enrich the block store during a milestone apply.
type AcceptedBlock struct {
	Document types.BlockDocument
}

// Milestone is the result of read_milestone(index).
type Milestone struct {
	SlotIndex       types.SlotIndex
	CommitmentId    types.CommitmentId
	CommitmentBytes []byte
}

// MilestoneCone is the result of read_milestone_cone(index): the block
// ids directly referenced by the milestone, the solidifier's starting
// queue for its past-cone walk.
type MilestoneCone struct {
	SlotIndex types.SlotIndex
	BlockIds  []types.BlockId
}
