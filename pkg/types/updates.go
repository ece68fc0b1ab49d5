package types

import "fmt"

// SortOrder is the direction a paginated reader walks an index. Ported from
// original_source's SortOrder: its wire form is the lowercase string
// "oldest"/"newest", not an integer.
type SortOrder int

const (
	SortOldest SortOrder = iota
	SortNewest
)

func (o SortOrder) String() string {
	if o == SortOldest {
		return "oldest"
	}
	return "newest"
}

// ParseSortOrder parses the "oldest"/"newest" wire strings. Anything else
// is a BadPagingState from the caller's point of view.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "oldest":
		return SortOldest, nil
	case "newest":
		return SortNewest, nil
	default:
		return 0, fmt.Errorf("unknown sort order %q", s)
	}
}

// LedgerUpdateRecord is one row of the ledger-update index. Two rows exist
// per addressable output over its lifetime: is_spent=false at slot_booked,
// is_spent=true at slot_spent. The composite unique key is
// (address, slot_index, output_id, is_spent) for the by-address ordering;
// the by-slot ordering drops the address and sorts by (output_id, is_spent).
type LedgerUpdateRecord struct {
	Address   Address
	SlotIndex SlotIndex
	OutputId  OutputId
	IsSpent   bool
}

// NewCreatedRecord builds the is_spent=false row emitted when an output is
// booked.
func NewCreatedRecord(o LedgerOutput) LedgerUpdateRecord {
	return LedgerUpdateRecord{
		Address:   o.Address,
		SlotIndex: o.SlotBooked,
		OutputId:  o.OutputId,
		IsSpent:   false,
	}
}

// NewSpentRecord builds the is_spent=true row emitted when an output is
// consumed.
func NewSpentRecord(s LedgerSpent) LedgerUpdateRecord {
	return LedgerUpdateRecord{
		Address:   s.Output.Address,
		SlotIndex: s.SlotSpent,
		OutputId:  s.Output.OutputId,
		IsSpent:   true,
	}
}

// UTXOChange is the (created, consumed) pair for one slot.
type UTXOChange struct {
	SlotIndex SlotIndex
	Created   []LedgerOutput
	Consumed  []LedgerSpent
}
