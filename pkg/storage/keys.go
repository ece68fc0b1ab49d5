package storage

import (
	"encoding/binary"

	"github.com/chronicle-go/chronicle/pkg/types"
)

// Key encodings used across the bbolt buckets. Every key is built so that
// bbolt's native lexicographic []byte order gives the sort order each
// index needs, removing the need for an in-memory sort step on any read
// path.

func slotBytes(s types.SlotIndex) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(s))
	return buf
}

func invertedSlotBytes(s types.SlotIndex) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, ^uint32(s))
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// outputByBookedSlotKey orders outputs ascending by slot_booked, then by
// output id, for the "indexed by slot_booked" requirement of §4.2.
func outputByBookedSlotKey(slot types.SlotIndex, id types.OutputId) []byte {
	key := make([]byte, 0, 4+34)
	key = append(key, slotBytes(slot)...)
	key = append(key, id.Bytes()...)
	return key
}

// outputBySpentSlotKey orders spent outputs by slot_spent descending, then
// slot_booked ascending, then output id, for the "(spent_metadata.slot_spent
// desc, slot_booked asc)" index required by §4.2. slot_spent is inverted so
// ascending byte order over the bucket gives descending slot_spent order;
// an exact-slot prefix scan (get_utxo_changes) is unaffected by the
// inversion since it only ever seeks one slot_spent value at a time.
func outputBySpentSlotKey(slotSpent, slotBooked types.SlotIndex, id types.OutputId) []byte {
	key := make([]byte, 0, 4+4+34)
	key = append(key, invertedSlotBytes(slotSpent)...)
	key = append(key, slotBytes(slotBooked)...)
	key = append(key, id.Bytes()...)
	return key
}

// ledgerUpdateByAddressKey builds the composite key
// (address, slot_index, output_id, is_spent) for the by-address ordering
// (§4.3). Ascending iteration gives SortOldest; reversed iteration gives
// SortNewest — the key never changes shape between the two.
func ledgerUpdateByAddressKey(addr types.Address, slot types.SlotIndex, id types.OutputId, isSpent bool) []byte {
	key := make([]byte, 0, len(addr)+1+4+34+1)
	key = append(key, byte(len(addr)))
	key = append(key, []byte(addr)...)
	key = append(key, slotBytes(slot)...)
	key = append(key, id.Bytes()...)
	key = append(key, boolByte(isSpent))
	return key
}

// ledgerUpdateBySlotKey builds the composite key (slot_index, output_id,
// is_spent) for the by-slot ordering, always ascending (§4.3).
func ledgerUpdateBySlotKey(slot types.SlotIndex, id types.OutputId, isSpent bool) []byte {
	key := make([]byte, 0, 4+34+1)
	key = append(key, slotBytes(slot)...)
	key = append(key, id.Bytes()...)
	key = append(key, boolByte(isSpent))
	return key
}

// blockBySlotKey orders blocks within a slot by block id, ascending.
func blockBySlotKey(slot types.SlotIndex, id types.BlockId) []byte {
	key := make([]byte, 0, 4+36)
	key = append(key, slotBytes(slot)...)
	key = append(key, id.Bytes()...)
	return key
}
