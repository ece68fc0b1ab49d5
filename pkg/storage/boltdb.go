package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/chronicle-go/chronicle/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketOutputs             = []byte("outputs")
	bucketOutputsByBookedSlot = []byte("outputs_by_booked_slot")
	bucketOutputsBySpentSlot  = []byte("outputs_by_spent_slot")
	bucketLedgerUpdatesByAddr = []byte("ledger_updates_by_address")
	bucketLedgerUpdatesBySlot = []byte("ledger_updates_by_slot")
	bucketBlocks              = []byte("blocks")
	bucketBlocksByTxId        = []byte("blocks_by_transaction_id")
	bucketBlocksBySlot        = []byte("blocks_by_slot")
	bucketCommittedSlots      = []byte("committed_slots")
	bucketAppState            = []byte("app_state")
)

const appStateNodeConfigKey = "node_configuration"

// BoltStore implements Store over a single BoltDB file, one bucket family
// per collection, with secondary orderings realized as extra buckets
// holding (sort key) -> output/block id so bbolt's native key order gives
// the required sort without an in-memory sort step.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) the Chronicle database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "chronicle.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketOutputs,
			bucketOutputsByBookedSlot,
			bucketOutputsBySpentSlot,
			bucketLedgerUpdatesByAddr,
			bucketLedgerUpdatesBySlot,
			bucketBlocks,
			bucketBlocksByTxId,
			bucketBlocksBySlot,
			bucketCommittedSlots,
			bucketAppState,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// --- Output store ---

func (s *BoltStore) InsertUnspentOutputs(outputs []types.LedgerOutput) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketOutputs)
		bySlot := tx.Bucket(bucketOutputsByBookedSlot)
		for _, o := range outputs {
			key := o.OutputId.Bytes()
			// insert-ignore-duplicates: a re-applied slot must not clobber
			// spent_metadata already recorded for this output.
			if docs.Get(key) != nil {
				continue
			}
			doc := types.NewOutputDocument(o)
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			if err := docs.Put(key, data); err != nil {
				return err
			}
			if err := bySlot.Put(outputByBookedSlotKey(o.SlotBooked, o.OutputId), key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) UpdateSpentOutputs(spent []types.LedgerSpent) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketOutputs)
		bySpentSlot := tx.Bucket(bucketOutputsBySpentSlot)
		for _, sp := range spent {
			key := sp.Output.OutputId.Bytes()
			raw := docs.Get(key)
			var doc types.OutputDocument
			if raw == nil {
				// The output was created and consumed without ever being
				// observed unspent by this process (can happen mid-stream
				// restart replay); materialize it from the spend record.
				doc = *types.NewOutputDocument(sp.Output)
			} else if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			if doc.SpentMetadata != nil {
				// update_spent_outputs is a no-op on a second call with the
				// same arguments: the spent-slot index entry is already in
				// place and must not be duplicated under a stale key.
				continue
			}
			doc.MarkSpent(sp)
			data, err := json.Marshal(&doc)
			if err != nil {
				return err
			}
			if err := docs.Put(key, data); err != nil {
				return err
			}
			if err := bySpentSlot.Put(outputBySpentSlotKey(doc.SpentMetadata.SlotSpent, doc.SlotBooked, doc.OutputId), key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetOutput(id types.OutputId) (*types.OutputDocument, error) {
	var doc *types.OutputDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketOutputs).Get(id.Bytes())
		if raw == nil {
			return &types.NoResults{Query: fmt.Sprintf("output %s", id)}
		}
		doc = &types.OutputDocument{}
		return json.Unmarshal(raw, doc)
	})
	return doc, err
}

func (s *BoltStore) GetOutputWithMetadata(id types.OutputId, ledgerIndex types.SlotIndex) (*types.OutputDocument, error) {
	doc, err := s.GetOutput(id)
	if err != nil {
		return nil, err
	}
	if doc.SlotBooked > ledgerIndex {
		return nil, &types.NoResults{Query: fmt.Sprintf("output %s not yet booked at ledger index %d", id, ledgerIndex)}
	}
	if doc.SpentMetadata != nil && doc.SpentMetadata.SlotSpent > ledgerIndex {
		// Unspent as-of ledgerIndex: hide the future spend.
		copyDoc := *doc
		copyDoc.SpentMetadata = nil
		return &copyDoc, nil
	}
	return doc, nil
}

func (s *BoltStore) GetUTXOChanges(slotIndex, ledgerIndex types.SlotIndex) (*types.UTXOChange, error) {
	if slotIndex > ledgerIndex {
		return nil, &types.RequestError{Reason: fmt.Sprintf("slot %d is ahead of ledger index %d", slotIndex, ledgerIndex)}
	}
	change := &types.UTXOChange{SlotIndex: slotIndex}
	err := s.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketOutputs)

		bookedPrefix := slotBytes(slotIndex)
		bySlot := tx.Bucket(bucketOutputsByBookedSlot)
		bc := bySlot.Cursor()
		for k, v := bc.Seek(bookedPrefix); k != nil && bytes.HasPrefix(k, bookedPrefix); k, v = bc.Next() {
			raw := docs.Get(v)
			if raw == nil {
				continue
			}
			var doc types.OutputDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			change.Created = append(change.Created, LedgerOutputFromDocument(doc))
		}

		// Consumed is every output whose spent_metadata.slot_spent equals
		// slotIndex, regardless of when it was booked — almost always an
		// earlier slot — so it is read from the spent-slot index, not the
		// booked-slot one scanned above.
		spentPrefix := invertedSlotBytes(slotIndex)
		bySpentSlot := tx.Bucket(bucketOutputsBySpentSlot)
		sc := bySpentSlot.Cursor()
		for k, v := sc.Seek(spentPrefix); k != nil && bytes.HasPrefix(k, spentPrefix); k, v = sc.Next() {
			raw := docs.Get(v)
			if raw == nil {
				continue
			}
			var doc types.OutputDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			change.Consumed = append(change.Consumed, LedgerSpentFromDocument(doc))
		}
		return nil
	})
	return change, err
}

// LedgerOutputFromDocument projects an OutputDocument back to its creation
// record, the inverse of NewOutputDocument.
func LedgerOutputFromDocument(d types.OutputDocument) types.LedgerOutput {
	return types.LedgerOutput{
		OutputId:             d.OutputId,
		BlockId:              d.BlockId,
		SlotBooked:           d.SlotBooked,
		CommitmentIdIncluded: d.CommitmentIdIncluded,
		RawOutput:            d.RawOutput,
		Address:              d.Address,
		Rent:                 d.Rent,
	}
}

// LedgerSpentFromDocument projects a spent OutputDocument back to a
// LedgerSpent record. Callers must check SpentMetadata != nil first.
func LedgerSpentFromDocument(d types.OutputDocument) types.LedgerSpent {
	return types.LedgerSpent{
		Output:             LedgerOutputFromDocument(d),
		CommitmentIdSpent:  d.SpentMetadata.CommitmentIdSpent,
		TransactionIdSpent: d.SpentMetadata.TransactionIdSpent,
		SlotSpent:          d.SpentMetadata.SlotSpent,
	}
}

func (s *BoltStore) GetAddressBalance(address types.Address, ledgerIndex types.SlotIndex) (uint64, error) {
	var total uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOutputs).ForEach(func(_, v []byte) error {
			var doc types.OutputDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if doc.Address != address {
				return nil
			}
			if !doc.IsUnspentAt(ledgerIndex) {
				return nil
			}
			amount, err := outputAmount(doc.RawOutput)
			if err != nil {
				return err
			}
			total += amount
			return nil
		})
	})
	return total, err
}

// outputAmount decodes the deposited base-token amount from raw output
// bytes. Chronicle does not implement the Stardust output serializer and
// does not go through types.AmountFn here: it reads the first 8 bytes of
// RawOutput as a big-endian uint64, and returns 0 when RawOutput is shorter.
func outputAmount(raw []byte) (uint64, error) {
	if len(raw) < 8 {
		return 0, nil
	}
	var amount uint64
	for i := 0; i < 8; i++ {
		amount = amount<<8 | uint64(raw[i])
	}
	return amount, nil
}

func (s *BoltStore) GetRichestAddresses(ledgerIndex types.SlotIndex, top int) ([]types.RichAddress, error) {
	balances := make(map[types.Address]uint64)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOutputs).ForEach(func(_, v []byte) error {
			var doc types.OutputDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if doc.Address == "" || !doc.IsUnspentAt(ledgerIndex) {
				return nil
			}
			amount, err := outputAmount(doc.RawOutput)
			if err != nil {
				return err
			}
			balances[doc.Address] += amount
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]types.RichAddress, 0, len(balances))
	for addr, bal := range balances {
		ranked = append(ranked, types.RichAddress{Address: addr, Balance: bal})
	}
	sortRichAddressesDesc(ranked)
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked, nil
}

func sortRichAddressesDesc(addrs []types.RichAddress) {
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && addrs[j].Balance > addrs[j-1].Balance; j-- {
			addrs[j], addrs[j-1] = addrs[j-1], addrs[j]
		}
	}
}

func (s *BoltStore) GetTokenDistribution(ledgerIndex types.SlotIndex) ([]types.TokenBucket, error) {
	// Chronicle's output serializer is out of scope (§1 Non-goals: no
	// block validation beyond structural parsing), so native-token ids
	// cannot be extracted from RawOutput here; this always returns the
	// empty distribution until a decoder is wired in. The shape matches
	// original_source/src/analytics/ledger/mod.rs's TokenBucket exactly so
	// the seam is ready.
	return nil, nil
}

func (s *BoltStore) CountOutputs() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketOutputs).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) ScanOutputsByBookedSlot(order types.IndexerPageOrder, cursor *IndexedOutputsCursor, pageSize int, ledgerIndex types.SlotIndex, match func(*types.OutputDocument) bool) (*types.IndexedOutputResult, error) {
	result := &types.IndexedOutputResult{LedgerIndex: ledgerIndex}
	err := s.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketOutputs)
		bySlot := tx.Bucket(bucketOutputsByBookedSlot)
		c := bySlot.Cursor()

		var k, v []byte
		if order == types.IndexerOldest {
			if cursor != nil {
				k, v = c.Seek(outputByBookedSlotKey(cursor.SlotIndex, cursor.OutputId))
			} else {
				k, v = c.First()
			}
		} else {
			if cursor != nil {
				seek := outputByBookedSlotKey(cursor.SlotIndex, cursor.OutputId)
				k, v = c.Seek(seek)
				if k == nil {
					k, v = c.Last()
				} else if !bytes.Equal(k, seek) {
					k, v = c.Prev()
				}
			} else {
				k, v = c.Last()
			}
		}

		for ; k != nil && len(result.OutputIds) <= pageSize; {
			id, err := types.OutputIdFromBytes(v)
			if err != nil {
				return err
			}
			raw := docs.Get(v)
			if raw != nil {
				var doc types.OutputDocument
				if err := json.Unmarshal(raw, &doc); err != nil {
					return err
				}
				if doc.SlotBooked <= ledgerIndex && match(&doc) {
					result.OutputIds = append(result.OutputIds, id)
				}
			}
			if order == types.IndexerOldest {
				k, v = c.Next()
			} else {
				k, v = c.Prev()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.OutputIds) > pageSize {
		last := result.OutputIds[pageSize]
		result.OutputIds = result.OutputIds[:pageSize]
		out, err := s.GetOutput(last)
		if err == nil {
			result.Cursor = &types.IndexerCursor{SlotIndex: out.SlotBooked, OutputId: last}
		}
	}
	return result, nil
}

// --- Ledger-update index ---

func (s *BoltStore) InsertLedgerUpdateRecords(records []types.LedgerUpdateRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		byAddr := tx.Bucket(bucketLedgerUpdatesByAddr)
		bySlot := tx.Bucket(bucketLedgerUpdatesBySlot)
		for _, r := range records {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			addrKey := ledgerUpdateByAddressKey(r.Address, r.SlotIndex, r.OutputId, r.IsSpent)
			if byAddr.Get(addrKey) == nil {
				if err := byAddr.Put(addrKey, data); err != nil {
					return err
				}
			}
			slotKey := ledgerUpdateBySlotKey(r.SlotIndex, r.OutputId, r.IsSpent)
			if bySlot.Get(slotKey) == nil {
				if err := bySlot.Put(slotKey, data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *BoltStore) GetLedgerUpdatesByAddress(address types.Address, order types.SortOrder, pageSize int, cursor *LedgerUpdatesByAddressCursor) ([]types.LedgerUpdateRecord, *LedgerUpdatesByAddressCursor, error) {
	var records []types.LedgerUpdateRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerUpdatesByAddr)
		c := b.Cursor()
		prefix := append([]byte{byte(len(address))}, []byte(address)...)

		var k, v []byte
		if order == types.SortOldest {
			if cursor != nil {
				k, v = c.Seek(ledgerUpdateByAddressKey(address, cursor.SlotIndex, cursor.OutputId, cursor.IsSpent))
			} else {
				k, v = c.Seek(prefix)
			}
			for ; k != nil && bytes.HasPrefix(k, prefix) && len(records) <= pageSize; k, v = c.Next() {
				records = append(records, decodeLedgerUpdateRecord(v))
			}
		} else {
			if cursor != nil {
				seek := ledgerUpdateByAddressKey(address, cursor.SlotIndex, cursor.OutputId, cursor.IsSpent)
				k, v = c.Seek(seek)
				if k == nil || !bytes.Equal(k, seek) {
					k, v = lastWithPrefix(c, prefix)
				}
			} else {
				k, v = lastWithPrefix(c, prefix)
			}
			for ; k != nil && bytes.HasPrefix(k, prefix) && len(records) <= pageSize; k, v = c.Prev() {
				records = append(records, decodeLedgerUpdateRecord(v))
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *LedgerUpdatesByAddressCursor
	if len(records) > pageSize {
		last := records[pageSize]
		records = records[:pageSize]
		next = &LedgerUpdatesByAddressCursor{SlotIndex: last.SlotIndex, OutputId: last.OutputId, IsSpent: last.IsSpent, PageSize: pageSize}
	}
	return records, next, nil
}

func lastWithPrefix(c *bolt.Cursor, prefix []byte) ([]byte, []byte) {
	upper := append(append([]byte{}, prefix...), 0xff)
	k, v := c.Seek(upper)
	if k == nil {
		return c.Last()
	}
	return c.Prev()
}

func (s *BoltStore) GetLedgerUpdatesBySlot(slot types.SlotIndex, pageSize int, cursor *LedgerUpdatesBySlotCursor) ([]types.LedgerUpdateRecord, *LedgerUpdatesBySlotCursor, error) {
	var records []types.LedgerUpdateRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLedgerUpdatesBySlot)
		c := b.Cursor()
		prefix := slotBytes(slot)

		var k, v []byte
		if cursor != nil {
			k, v = c.Seek(ledgerUpdateBySlotKey(slot, cursor.OutputId, cursor.IsSpent))
		} else {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix) && len(records) <= pageSize; k, v = c.Next() {
			records = append(records, decodeLedgerUpdateRecord(v))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *LedgerUpdatesBySlotCursor
	if len(records) > pageSize {
		last := records[pageSize]
		records = records[:pageSize]
		next = &LedgerUpdatesBySlotCursor{OutputId: last.OutputId, IsSpent: last.IsSpent, PageSize: pageSize}
	}
	return records, next, nil
}

func decodeLedgerUpdateRecord(v []byte) types.LedgerUpdateRecord {
	var r types.LedgerUpdateRecord
	_ = json.Unmarshal(v, &r)
	return r
}

// --- Block store ---

func (s *BoltStore) InsertBlocks(blocks []*types.BlockDocument) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketBlocks)
		byTx := tx.Bucket(bucketBlocksByTxId)
		bySlot := tx.Bucket(bucketBlocksBySlot)
		for _, b := range blocks {
			key := b.BlockId.Bytes()
			data, err := json.Marshal(b)
			if err != nil {
				return err
			}
			if err := docs.Put(key, data); err != nil {
				return err
			}
			if err := bySlot.Put(blockBySlotKey(b.SlotIndex, b.BlockId), key); err != nil {
				return err
			}
			if b.Metadata.State == types.BlockStateFinalized && b.Transaction != nil {
				if err := byTx.Put(b.Transaction.TransactionId[:], key); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *BoltStore) GetBlock(id types.BlockId) (*types.BlockDocument, error) {
	var doc *types.BlockDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketBlocks).Get(id.Bytes())
		if raw == nil {
			return &types.NoResults{Query: fmt.Sprintf("block %s", id)}
		}
		doc = &types.BlockDocument{}
		return json.Unmarshal(raw, doc)
	})
	return doc, err
}

func (s *BoltStore) GetBlockByTransactionId(txID types.TransactionID) (*types.BlockDocument, error) {
	var doc *types.BlockDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		blockKey := tx.Bucket(bucketBlocksByTxId).Get(txID[:])
		if blockKey == nil {
			return &types.NoResults{Query: fmt.Sprintf("block for transaction %s", txID)}
		}
		raw := tx.Bucket(bucketBlocks).Get(blockKey)
		if raw == nil {
			return &types.CorruptState{Reason: "transaction index points at missing block"}
		}
		doc = &types.BlockDocument{}
		return json.Unmarshal(raw, doc)
	})
	return doc, err
}

func (s *BoltStore) GetBlocksBySlot(slot types.SlotIndex, pageSize int, cursor *BlocksBySlotCursor) ([]*types.BlockDocument, *BlocksBySlotCursor, error) {
	var blocks []*types.BlockDocument
	err := s.db.View(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketBlocks)
		bySlot := tx.Bucket(bucketBlocksBySlot)
		c := bySlot.Cursor()
		prefix := slotBytes(slot)

		var k, v []byte
		if cursor != nil {
			k, v = c.Seek(blockBySlotKey(slot, cursor.BlockId))
		} else {
			k, v = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix) && len(blocks) <= pageSize; k, v = c.Next() {
			raw := docs.Get(v)
			if raw == nil {
				continue
			}
			var doc types.BlockDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return err
			}
			blocks = append(blocks, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *BlocksBySlotCursor
	if len(blocks) > pageSize {
		last := blocks[pageSize]
		blocks = blocks[:pageSize]
		next = &BlocksBySlotCursor{BlockId: last.BlockId, PageSize: pageSize}
	}
	return blocks, next, nil
}

func (s *BoltStore) CountBlocks() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketBlocks).Stats().KeyN
		return nil
	})
	return n, err
}

// --- Committed-slot store ---

func (s *BoltStore) UpsertCommittedSlot(slot types.CommittedSlot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(slot)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketCommittedSlots).Put(slotBytes(slot.SlotIndex), data)
	})
}

func (s *BoltStore) GetLatestCommittedSlot() (*types.CommittedSlot, error) {
	var slot *types.CommittedSlot
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCommittedSlots).Cursor()
		k, v := c.Last()
		if k == nil {
			return &types.NoResults{Query: "latest committed slot"}
		}
		slot = &types.CommittedSlot{}
		return json.Unmarshal(v, slot)
	})
	return slot, err
}

func (s *BoltStore) GetCommitment(index types.SlotIndex) (*types.CommittedSlot, error) {
	var slot *types.CommittedSlot
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketCommittedSlots).Get(slotBytes(index))
		if raw == nil {
			return &types.NoResults{Query: fmt.Sprintf("commitment at slot %d", index)}
		}
		slot = &types.CommittedSlot{}
		return json.Unmarshal(raw, slot)
	})
	return slot, err
}

func (s *BoltStore) GetCommitments(start, end types.SlotIndex, order types.SortOrder, pageSize int, cursor *SlotsCursor) ([]types.CommittedSlot, *SlotsCursor, error) {
	if start > end {
		return nil, nil, &types.BadTimeRange{Start: fmt.Sprint(start), End: fmt.Sprint(end)}
	}
	var slots []types.CommittedSlot
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCommittedSlots).Cursor()
		lower := slotBytes(start)
		upper := slotBytes(end)

		var k, v []byte
		if order == types.SortOldest {
			if cursor != nil {
				k, v = c.Seek(slotBytes(cursor.SlotIndex))
			} else {
				k, v = c.Seek(lower)
			}
			for ; k != nil && bytes.Compare(k, upper) <= 0 && len(slots) <= pageSize; k, v = c.Next() {
				var cs types.CommittedSlot
				if err := json.Unmarshal(v, &cs); err != nil {
					return err
				}
				slots = append(slots, cs)
			}
		} else {
			if cursor != nil {
				seek := slotBytes(cursor.SlotIndex)
				k, v = c.Seek(seek)
				if k == nil {
					k, v = c.Last()
				} else if !bytes.Equal(k, seek) {
					k, v = c.Prev()
				}
			} else {
				k, v = c.Seek(upper)
				if k == nil || bytes.Compare(k, upper) > 0 {
					k, v = c.Last()
				}
			}
			for ; k != nil && bytes.Compare(k, lower) >= 0 && len(slots) <= pageSize; k, v = c.Prev() {
				var cs types.CommittedSlot
				if err := json.Unmarshal(v, &cs); err != nil {
					return err
				}
				slots = append(slots, cs)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *SlotsCursor
	if len(slots) > pageSize {
		last := slots[pageSize]
		slots = slots[:pageSize]
		next = &SlotsCursor{SlotIndex: last.SlotIndex, PageSize: pageSize}
	}
	return slots, next, nil
}

// --- Application state ---

func (s *BoltStore) GetNodeConfiguration() (*types.NodeConfiguration, error) {
	var cfg *types.NodeConfiguration
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketAppState).Get([]byte(appStateNodeConfigKey))
		if raw == nil {
			return &types.CorruptState{Reason: "no persisted node configuration"}
		}
		cfg = &types.NodeConfiguration{}
		return json.Unmarshal(raw, cfg)
	})
	return cfg, err
}

func (s *BoltStore) SaveNodeConfiguration(cfg types.NodeConfiguration) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAppState).Put([]byte(appStateNodeConfigKey), data)
	})
}

// --- Maintenance ---

func (s *BoltStore) TruncateAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketOutputs, bucketOutputsByBookedSlot, bucketOutputsBySpentSlot,
			bucketLedgerUpdatesByAddr, bucketLedgerUpdatesBySlot,
			bucketBlocks, bucketBlocksByTxId, bucketBlocksBySlot,
			bucketCommittedSlots, bucketAppState,
		}
		for _, name := range buckets {
			if err := tx.DeleteBucket(name); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// TruncateNewerThan implements the legacy corruption-recovery behavior
// (§4.1): remove any rows with slot_booked > latest or slot_spent > latest
// from outputs, the ledger-update index, and blocks, and every committed
// slot after latest. It reports counts removed per collection.
func (s *BoltStore) TruncateNewerThan(slot types.SlotIndex) (map[string]int, error) {
	removed := map[string]int{"outputs": 0, "ledger_updates": 0, "blocks": 0, "committed_slots": 0}
	err := s.db.Update(func(tx *bolt.Tx) error {
		outputs := tx.Bucket(bucketOutputs)
		var staleOutputs [][]byte
		if err := outputs.ForEach(func(k, v []byte) error {
			var doc types.OutputDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if doc.SlotBooked > slot || (doc.SpentMetadata != nil && doc.SpentMetadata.SlotSpent > slot) {
				staleOutputs = append(staleOutputs, append([]byte{}, k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range staleOutputs {
			if err := outputs.Delete(k); err != nil {
				return err
			}
			removed["outputs"]++
		}

		for _, name := range [][]byte{bucketLedgerUpdatesByAddr, bucketLedgerUpdatesBySlot} {
			b := tx.Bucket(name)
			var stale [][]byte
			if err := b.ForEach(func(k, v []byte) error {
				var r types.LedgerUpdateRecord
				if err := json.Unmarshal(v, &r); err != nil {
					return err
				}
				if r.SlotIndex > slot {
					stale = append(stale, append([]byte{}, k...))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
				if string(name) == string(bucketLedgerUpdatesByAddr) {
					removed["ledger_updates"]++
				}
			}
		}

		blocks := tx.Bucket(bucketBlocks)
		var staleBlocks [][]byte
		if err := blocks.ForEach(func(k, v []byte) error {
			var doc types.BlockDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			if doc.SlotIndex > slot {
				staleBlocks = append(staleBlocks, append([]byte{}, k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range staleBlocks {
			if err := blocks.Delete(k); err != nil {
				return err
			}
			removed["blocks"]++
		}

		committed := tx.Bucket(bucketCommittedSlots)
		var staleCommitted [][]byte
		if err := committed.ForEach(func(k, v []byte) error {
			var cs types.CommittedSlot
			if err := json.Unmarshal(v, &cs); err != nil {
				return err
			}
			if cs.SlotIndex > slot {
				staleCommitted = append(staleCommitted, append([]byte{}, k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range staleCommitted {
			if err := committed.Delete(k); err != nil {
				return err
			}
			removed["committed_slots"]++
		}

		return nil
	})
	return removed, err
}
