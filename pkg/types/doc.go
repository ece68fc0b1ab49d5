/*
Package types defines Chronicle's core data model: the UTXO-style ledger
entities ingested from the upstream node and the typed error taxonomy used
throughout the ingestion and query layers.

# Core Types

Identifiers:
  - OutputId: (transaction_id, output_index), canonical byte encoding gives
    total order.
  - BlockId, CommitmentId, TransactionID: content-addressed identifiers.

Ledger entities:
  - LedgerOutput / LedgerSpent: the created/consumed wire records.
  - OutputDocument: the store row, LedgerOutput plus optional spent metadata.
  - LedgerUpdateRecord: one row of the per-address/per-slot index.
  - BlockDocument, CommittedSlot: block store and checkpoint rows.
  - NodeConfiguration, ProtocolParameters: application-state singleton.

Indexer queries:
  - One predicate struct per output kind (Basic/Account/Anchor/Foundry/NFT/
    Delegation), each implementing AppendQuery so pkg/indexer can compile a
    FilterSet without a generic extractor.

Errors:
  - A typed value per row of the ingestion error taxonomy (SyncSlotGap,
    NetworkChanged, InvalidLedgerUpdateCount, BadPagingState, ...),
    classified with errors.As at call sites that need to react.

# Ownership

The output store owns output data exclusively; the ledger-update index
holds a denormalized projection only and can be rebuilt from it.
*/
package types
