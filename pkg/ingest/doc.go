/*
Package ingest is the INX worker (§4.1): it drives the full
ingestion lifecycle — connect, reconcile, bootstrap-if-empty, stream-apply,
checkpoint — and is the sole writer for outputs, ledger-update index rows,
block documents, and committed-slot rows.

Bounded parallelism (§5) is a chunk-and-fan-out helper
(chunk.go) used by bootstrap's unspent-output writes and by each
milestone's ledger-update-record projection; callers await every chunk
before going on. A milestone's created/consumed/block writes are not
chunked: they go to the stores together in one commit-log apply.
*/
package ingest
