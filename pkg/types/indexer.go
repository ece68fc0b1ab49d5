package types

import "time"

// FilterSet accumulates the predicates an AppendQuery implementation
// contributes; pkg/indexer compiles it against the output store. It stands
// in for the legacy Mongo aggregate pipeline's $match document without
// tying the core to any one storage engine's query language.
type FilterSet struct {
	Address              *Address
	NativeTokenId        *string
	HasNativeToken       *bool
	StorageDepositReturn *bool
	StorageReturnAddress *Address
	HasTimelock          *bool
	TimelockBefore       *SlotIndex
	TimelockAfter        *SlotIndex
	HasExpiration        *bool
	ExpiresBefore        *SlotIndex
	ExpiresAfter         *SlotIndex
	ExpirationReturnAddr *Address
	Sender               *Address
	Issuer               *Address
	Tag                  *string
	CreatedBefore        *time.Time
	CreatedAfter         *time.Time
	UnlockableBy         *Address
	UnlockableAtSlot     *SlotIndex
}

// AppendQuery is implemented by every typed output-kind query; it lets
// pkg/indexer compile a predicate-to-filter translation without a generic
// FromRequest-style extractor and without touching every query kind when a
// new predicate is added (§9 Design Notes).
type AppendQuery interface {
	AppendQuery(doc *FilterSet)
}

// commonQuery holds the predicates shared by every output kind.
type commonQuery struct {
	Address              *Address
	HasNativeToken       *bool
	NativeTokenId        *string
	StorageDepositReturn *bool
	StorageReturnAddress *Address
	HasTimelock          *bool
	TimelockBefore       *SlotIndex
	TimelockAfter        *SlotIndex
	HasExpiration        *bool
	ExpiresBefore        *SlotIndex
	ExpiresAfter         *SlotIndex
	ExpirationReturnAddr *Address
	Sender               *Address
	Tag                  *string
	CreatedBefore        *time.Time
	CreatedAfter         *time.Time
	UnlockableBy         *Address
	UnlockableAtSlot     *SlotIndex
}

func (c commonQuery) appendCommon(doc *FilterSet) {
	doc.Address = c.Address
	doc.HasNativeToken = c.HasNativeToken
	doc.NativeTokenId = c.NativeTokenId
	doc.StorageDepositReturn = c.StorageDepositReturn
	doc.StorageReturnAddress = c.StorageReturnAddress
	doc.HasTimelock = c.HasTimelock
	doc.TimelockBefore = c.TimelockBefore
	doc.TimelockAfter = c.TimelockAfter
	doc.HasExpiration = c.HasExpiration
	doc.ExpiresBefore = c.ExpiresBefore
	doc.ExpiresAfter = c.ExpiresAfter
	doc.ExpirationReturnAddr = c.ExpirationReturnAddr
	doc.Sender = c.Sender
	doc.Tag = c.Tag
	doc.CreatedBefore = c.CreatedBefore
	doc.CreatedAfter = c.CreatedAfter
	doc.UnlockableBy = c.UnlockableBy
	doc.UnlockableAtSlot = c.UnlockableAtSlot
}

// BasicOutputsQuery is the predicate set for basic outputs.
type BasicOutputsQuery struct {
	commonQuery
}

func (q BasicOutputsQuery) AppendQuery(doc *FilterSet) { q.appendCommon(doc) }

// AccountOutputsQuery additionally predicates on the issuer field, which
// only account/nft outputs carry.
type AccountOutputsQuery struct {
	commonQuery
	Issuer *Address
}

func (q AccountOutputsQuery) AppendQuery(doc *FilterSet) {
	q.appendCommon(doc)
	doc.Issuer = q.Issuer
}

// AnchorOutputsQuery predicates on anchor outputs; anchors have state and
// governor controllers but Chronicle indexes by unlock-condition address
// like any other addressable output.
type AnchorOutputsQuery struct {
	commonQuery
}

func (q AnchorOutputsQuery) AppendQuery(doc *FilterSet) { q.appendCommon(doc) }

// FoundryOutputsQuery predicates on foundry outputs, identified by the
// account that controls them rather than a plain unlock address.
type FoundryOutputsQuery struct {
	commonQuery
	AccountAddress *Address
}

func (q FoundryOutputsQuery) AppendQuery(doc *FilterSet) {
	q.appendCommon(doc)
	if q.AccountAddress != nil {
		doc.Address = q.AccountAddress
	}
}

// NFTOutputsQuery predicates on NFT outputs.
type NFTOutputsQuery struct {
	commonQuery
	Issuer *Address
}

func (q NFTOutputsQuery) AppendQuery(doc *FilterSet) {
	q.appendCommon(doc)
	doc.Issuer = q.Issuer
}

// DelegationOutputsQuery predicates on delegation outputs.
type DelegationOutputsQuery struct {
	commonQuery
	Validator *Address
}

func (q DelegationOutputsQuery) AppendQuery(doc *FilterSet) {
	q.appendCommon(doc)
	if q.Validator != nil {
		doc.Address = q.Validator
	}
}

// IndexerPageOrder is the sort direction for an indexer query result:
// Newest is (slot_booked desc, output_id desc), Oldest is the reverse.
type IndexerPageOrder int

const (
	IndexerNewest IndexerPageOrder = iota
	IndexerOldest
)

// IndexerCursor resumes an indexer query: (slot, output_id).
type IndexerCursor struct {
	SlotIndex SlotIndex
	OutputId  OutputId
}

// IndexedOutputResult is one page of an indexer query.
type IndexedOutputResult struct {
	OutputIds []OutputId
	LedgerIndex SlotIndex
	Cursor      *IndexerCursor
}
