package storage

import (
	"github.com/chronicle-go/chronicle/pkg/types"
)

// Store is Chronicle's persistence interface: the output store, the
// ledger-update index, the block store, the committed-slot store, and the
// application-state singleton, all implemented over one BoltDB file.
//
// Every mutation is keyed on a primary or composite unique key with
// insert-ignore-duplicates or idempotent update semantics (§5
// Shared-resource policy) — there are no in-process locks beyond what
// bbolt's single-writer transaction model already gives for free.
type Store interface {
	// Output store (§4.2)
	InsertUnspentOutputs(outputs []types.LedgerOutput) error
	UpdateSpentOutputs(spent []types.LedgerSpent) error
	GetOutput(id types.OutputId) (*types.OutputDocument, error)
	GetOutputWithMetadata(id types.OutputId, ledgerIndex types.SlotIndex) (*types.OutputDocument, error)
	GetUTXOChanges(slotIndex, ledgerIndex types.SlotIndex) (*types.UTXOChange, error)
	GetAddressBalance(address types.Address, ledgerIndex types.SlotIndex) (uint64, error)
	GetRichestAddresses(ledgerIndex types.SlotIndex, top int) ([]types.RichAddress, error)
	GetTokenDistribution(ledgerIndex types.SlotIndex) ([]types.TokenBucket, error)
	CountOutputs() (int, error)

	// Indexer scan seam (§4.5) — pkg/indexer compiles an AppendQuery into a
	// match predicate and walks the booked-slot ordering with it.
	ScanOutputsByBookedSlot(order types.IndexerPageOrder, cursor *IndexedOutputsCursor, pageSize int, ledgerIndex types.SlotIndex, match func(*types.OutputDocument) bool) (*types.IndexedOutputResult, error)

	// Ledger-update index (§4.3)
	InsertLedgerUpdateRecords(records []types.LedgerUpdateRecord) error
	GetLedgerUpdatesByAddress(address types.Address, order types.SortOrder, pageSize int, cursor *LedgerUpdatesByAddressCursor) ([]types.LedgerUpdateRecord, *LedgerUpdatesByAddressCursor, error)
	GetLedgerUpdatesBySlot(slot types.SlotIndex, pageSize int, cursor *LedgerUpdatesBySlotCursor) ([]types.LedgerUpdateRecord, *LedgerUpdatesBySlotCursor, error)

	// Block store (§4.4)
	InsertBlocks(blocks []*types.BlockDocument) error
	GetBlock(id types.BlockId) (*types.BlockDocument, error)
	GetBlockByTransactionId(txID types.TransactionID) (*types.BlockDocument, error)
	GetBlocksBySlot(slot types.SlotIndex, pageSize int, cursor *BlocksBySlotCursor) ([]*types.BlockDocument, *BlocksBySlotCursor, error)
	CountBlocks() (int, error)

	// Committed-slot store (§4.4)
	UpsertCommittedSlot(slot types.CommittedSlot) error
	GetLatestCommittedSlot() (*types.CommittedSlot, error)
	GetCommitment(index types.SlotIndex) (*types.CommittedSlot, error)
	GetCommitments(start, end types.SlotIndex, order types.SortOrder, pageSize int, cursor *SlotsCursor) ([]types.CommittedSlot, *SlotsCursor, error)

	// Application-state singleton (§3)
	GetNodeConfiguration() (*types.NodeConfiguration, error)
	SaveNodeConfiguration(cfg types.NodeConfiguration) error

	// Maintenance (§4.1 bootstrap / corruption recovery)
	TruncateAll() error
	TruncateNewerThan(slot types.SlotIndex) (map[string]int, error)

	Close() error
}
