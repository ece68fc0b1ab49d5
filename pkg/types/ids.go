package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// SlotIndex is a milestone/slot checkpoint index. Total order is the natural
// uint32 order; it doubles as the legacy "milestone index" pre-Stardust.
type SlotIndex uint32

// TransactionID identifies the transaction that booked an output.
type TransactionID [32]byte

func (t TransactionID) String() string {
	return hex.EncodeToString(t[:])
}

// OutputId is a stable identifier: (transaction_id, output_index). Total
// order is lexicographic over its canonical byte encoding, which is what
// every bbolt bucket keyed by output id relies on.
type OutputId struct {
	TransactionID TransactionID
	Index         uint16
}

// Bytes returns the canonical 34-byte encoding: transaction id followed by
// the big-endian output index, so byte-lexicographic order matches the
// natural (transaction_id, index) order.
func (o OutputId) Bytes() []byte {
	buf := make([]byte, 34)
	copy(buf, o.TransactionID[:])
	binary.BigEndian.PutUint16(buf[32:], o.Index)
	return buf
}

func (o OutputId) String() string {
	return fmt.Sprintf("%s%04x", o.TransactionID, o.Index)
}

// Less gives the total order required by spec: lexicographic over the
// canonical byte encoding.
func (o OutputId) Less(other OutputId) bool {
	return bytes.Compare(o.Bytes(), other.Bytes()) < 0
}

// OutputIdFromBytes parses the canonical 34-byte encoding back into an OutputId.
func OutputIdFromBytes(b []byte) (OutputId, error) {
	if len(b) != 34 {
		return OutputId{}, fmt.Errorf("invalid output id length: %d", len(b))
	}
	var id OutputId
	copy(id.TransactionID[:], b[:32])
	id.Index = binary.BigEndian.Uint16(b[32:])
	return id, nil
}

// BlockId identifies a block: a content hash plus the slot it was issued in,
// mirroring the Stardust block id scheme (hash || slot_index).
type BlockId struct {
	Hash      [32]byte
	SlotIndex SlotIndex
}

func (b BlockId) Bytes() []byte {
	buf := make([]byte, 36)
	copy(buf, b.Hash[:])
	binary.BigEndian.PutUint32(buf[32:], uint32(b.SlotIndex))
	return buf
}

func (b BlockId) String() string {
	return hex.EncodeToString(b.Bytes())
}

func BlockIdFromBytes(b []byte) (BlockId, error) {
	if len(b) != 36 {
		return BlockId{}, fmt.Errorf("invalid block id length: %d", len(b))
	}
	var id BlockId
	copy(id.Hash[:], b[:32])
	id.SlotIndex = SlotIndex(binary.BigEndian.Uint32(b[32:]))
	return id, nil
}

// CommitmentId identifies a slot commitment. Its first field is the slot
// index per the glossary, so the byte encoding sorts by slot first.
type CommitmentId struct {
	SlotIndex SlotIndex
	Hash      [32]byte
}

func (c CommitmentId) Bytes() []byte {
	buf := make([]byte, 36)
	binary.BigEndian.PutUint32(buf, uint32(c.SlotIndex))
	copy(buf[4:], c.Hash[:])
	return buf
}

func (c CommitmentId) String() string {
	return hex.EncodeToString(c.Bytes())
}

// Address is the opaque bech32-encoded locked address of an addressable
// output. Chronicle never decodes or custodies key material; it treats
// addresses as comparable strings.
type Address string

// TransactionIDFromBytes parses a 32-byte transaction id.
func TransactionIDFromBytes(b []byte) (TransactionID, error) {
	var t TransactionID
	if len(b) != 32 {
		return t, fmt.Errorf("invalid transaction id length: %d", len(b))
	}
	copy(t[:], b)
	return t, nil
}
