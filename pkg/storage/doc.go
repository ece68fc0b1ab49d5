/*
Package storage provides BoltDB-backed persistence for Chronicle's ledger
state: the output store, the ledger-update index, the block store, the
committed-slot store, and the application-state singleton.

# Architecture

Everything lives in one bbolt file, one bucket family per collection:

	outputs                      output_id -> OutputDocument
	outputs_by_booked_slot       slot||output_id -> output_id
	outputs_by_spent_slot        ^slot_spent||slot_booked||output_id -> output_id
	ledger_updates_by_address    len(addr)||addr||slot||output_id||spent -> LedgerUpdateRecord
	ledger_updates_by_slot       slot||output_id||spent -> LedgerUpdateRecord
	blocks                       block_id -> BlockDocument
	blocks_by_transaction_id     transaction_id -> block_id (finalized only)
	blocks_by_slot               slot||block_id -> block_id
	committed_slots              slot -> CommittedSlot
	app_state                    "node_configuration" -> NodeConfiguration

The output and block secondary-ordering buckets hold only the id, never a
copy of the row, so a read through them is one indirection plus one primary
lookup; both ledger-update buckets store the record itself. Every composite key
is built from pkg/storage/keys.go so bbolt's native lexicographic []byte
order gives the sort order spec'd for that collection without an
in-memory sort step; see cursor.go for the string-cursor grammar these
keys round-trip through.

# Transaction model

Read transactions use db.View (concurrent, MVCC snapshot); writes use
db.Update (serialized, single-writer, fsync on commit). Output and
ledger-update inserts check for an existing key before writing, so
re-applying the same milestone does not clobber already-recorded spent
metadata; InsertBlocks overwrites an existing block row.

# Usage

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.InsertUnspentOutputs(created); err != nil {
		...
	}

# See also

  - pkg/ingest for the worker that drives these writes per milestone
  - pkg/indexer for the query layer built over ScanOutputsByBookedSlot
  - BoltDB documentation: https://github.com/etcd-io/bbolt
*/
package storage
