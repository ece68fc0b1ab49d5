package types

import "fmt"

// SyncSlotGap is fatal: the node's pruning horizon has moved past what we
// last committed, so the data we'd need to catch up no longer exists
// upstream. Operator action (resync from a snapshot) is required.
type SyncSlotGap struct {
	Start SlotIndex
	End   SlotIndex
}

func (e *SyncSlotGap) Error() string {
	return fmt.Sprintf("sync slot gap: need [%d, %d] but node has pruned it", e.Start, e.End)
}

// SyncSlotIndexMismatch is fatal: the node reports a last-accepted slot
// behind our own latest committed slot. Refuse to start rather than risk
// diverging from a rolled-back node.
type SyncSlotIndexMismatch struct {
	Node SlotIndex
	DB   SlotIndex
}

func (e *SyncSlotIndexMismatch) Error() string {
	return fmt.Sprintf("sync slot index mismatch: node=%d db=%d", e.Node, e.DB)
}

// NetworkChanged is fatal: the stored network name no longer matches the
// node we connected to.
type NetworkChanged struct {
	Old string
	New string
}

func (e *NetworkChanged) Error() string {
	return fmt.Sprintf("network changed: stored=%q node=%q", e.Old, e.New)
}

// InvalidUnspentOutputIndex is fatal: the bootstrap unspent-output stream
// was not uniformly tagged with one ledger index.
type InvalidUnspentOutputIndex struct {
	Found    SlotIndex
	Expected SlotIndex
}

func (e *InvalidUnspentOutputIndex) Error() string {
	return fmt.Sprintf("invalid unspent output index: found=%d expected=%d", e.Found, e.Expected)
}

// InvalidLedgerUpdateCount is fatal for the current substream: the Begin
// and End event counts disagree with what was actually received.
type InvalidLedgerUpdateCount struct {
	ReceivedCreated int
	ExpectedCreated int
	ReceivedConsumed int
	ExpectedConsumed int
}

func (e *InvalidLedgerUpdateCount) Error() string {
	return fmt.Sprintf("invalid ledger update count: created %d/%d consumed %d/%d",
		e.ReceivedCreated, e.ExpectedCreated, e.ReceivedConsumed, e.ExpectedConsumed)
}

// InvalidMilestoneState is fatal: a non-Begin event arrived while the
// stream decoder was Idle.
type InvalidMilestoneState struct {
	Event string
}

func (e *InvalidMilestoneState) Error() string {
	return fmt.Sprintf("invalid milestone state: unexpected %s while idle", e.Event)
}

// MissingMilestoneField is fatal for the slot being applied: the node
// returned an incomplete milestone.
type MissingMilestoneField struct {
	SlotIndex SlotIndex
	Field     string
}

func (e *MissingMilestoneField) Error() string {
	return fmt.Sprintf("missing milestone field %q at slot %d", e.Field, e.SlotIndex)
}

// BadPagingState is a request error: a cursor string did not parse per its
// grammar.
type BadPagingState struct {
	Cursor string
	Reason string
}

func (e *BadPagingState) Error() string {
	return fmt.Sprintf("bad paging state %q: %s", e.Cursor, e.Reason)
}

// BadTimeRange is a request error: start > end for a time or slot range.
type BadTimeRange struct {
	Start string
	End   string
}

func (e *BadTimeRange) Error() string {
	return fmt.Sprintf("bad time range: start %s > end %s", e.Start, e.End)
}

// CorruptState is a 5xx-equivalent: an invariant was violated, e.g. missing
// protocol parameters or missing node configuration where one is required.
type CorruptState struct {
	Reason string
}

func (e *CorruptState) Error() string {
	return fmt.Sprintf("corrupt state: %s", e.Reason)
}

// NoResults is a 404-equivalent: a normal empty read.
type NoResults struct {
	Query string
}

func (e *NoResults) Error() string {
	return fmt.Sprintf("no results: %s", e.Query)
}

// RequestError wraps a caller-supplied bad input (parse, range, cursor)
// that is surfaced as a 4xx equivalent and never retried.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error: %s", e.Reason)
}
