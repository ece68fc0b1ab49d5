package types

// BlockState is the acceptance state of a block as reported by the node.
type BlockState string

const (
	BlockStatePending   BlockState = "pending"
	BlockStateAccepted  BlockState = "accepted"
	BlockStateConfirmed BlockState = "confirmed"
	BlockStateFinalized BlockState = "finalized"
	BlockStateRejected  BlockState = "rejected"
	BlockStateFailed    BlockState = "failed"
)

// PayloadType distinguishes the sparse set of block payloads Chronicle
// cares about; anything else is stored opaque.
type PayloadType string

const (
	PayloadTransaction PayloadType = "transaction"
	PayloadTaggedData  PayloadType = "tagged_data"
	PayloadCandidacy   PayloadType = "candidacy_announcement"
)

// BlockMetadata is the parsed subset of node-reported block state Chronicle
// indexes; RawMetadata keeps the byte-accept contract intact.
type BlockMetadata struct {
	State      BlockState
	RawMetadata []byte
}

// TransactionSubDocument is populated only when the block carries a
// transaction payload; it is the source of the consumed output ids used to
// build the spent side of a milestone apply.
type TransactionSubDocument struct {
	TransactionId TransactionID
	ConsumedOutputIds []OutputId
}

// BlockDocument is the block store's row: signed block bytes plus parsed
// metadata. The transaction_id secondary index is unique only when the
// block's state is finalized (§4.4) — a finalized block reachable by its
// transaction id is canonical.
type BlockDocument struct {
	BlockId     BlockId
	RawBlock    []byte
	Metadata    BlockMetadata
	SlotIndex   SlotIndex
	PayloadType *PayloadType
	Transaction *TransactionSubDocument

	// Parents are this block's tip-selection parents, the past-cone
	// walk's expansion set once the block is confirmed referenced by the
	// milestone being solidified.
	Parents []BlockId
	// ReferencedByMilestone is nil until the node has reported which
	// milestone's White Flag traversal referenced this block; the
	// solidifier's past-cone walk treats a nil value as "present without
	// reference metadata" and a non-nil one as the resolved milestone.
	ReferencedByMilestone *SlotIndex
}
