package storage

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/chronicle-go/chronicle/pkg/types"
)

// The query cursor grammar (§6): stable, string-serialized, dot-separated.
// Parsing splits on '.', expects the exact field arity, and decodes each
// field; any mismatch is a BadPagingState. Emission joins with '.' the
// fields of the extra row fetched past page_size, and a read resumed with
// that cursor starts at that row. page_size is always clamped by the caller to the
// configured max_page_size.

// LedgerUpdatesByAddressCursor resumes a by-address timeline:
// <slot>.<output_id>.<is_spent>.<page_size>
type LedgerUpdatesByAddressCursor struct {
	SlotIndex types.SlotIndex
	OutputId  types.OutputId
	IsSpent   bool
	PageSize  int
}

func ParseLedgerUpdatesByAddressCursor(s string) (*LedgerUpdatesByAddressCursor, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, &types.BadPagingState{Cursor: s, Reason: fmt.Sprintf("expected 4 fields, got %d", len(parts))}
	}
	slot, err := parseSlot(parts[0])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	id, err := parseOutputId(parts[1])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	spent, err := parseBool(parts[2])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	pageSize, err := parseInt(parts[3])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	return &LedgerUpdatesByAddressCursor{SlotIndex: slot, OutputId: id, IsSpent: spent, PageSize: pageSize}, nil
}

func (c *LedgerUpdatesByAddressCursor) String() string {
	return fmt.Sprintf("%d.%s.%s.%d", c.SlotIndex, c.OutputId, boolString(c.IsSpent), c.PageSize)
}

// LedgerUpdatesBySlotCursor resumes within one slot:
// <output_id>.<is_spent>.<page_size>
type LedgerUpdatesBySlotCursor struct {
	OutputId types.OutputId
	IsSpent  bool
	PageSize int
}

func ParseLedgerUpdatesBySlotCursor(s string) (*LedgerUpdatesBySlotCursor, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, &types.BadPagingState{Cursor: s, Reason: fmt.Sprintf("expected 3 fields, got %d", len(parts))}
	}
	id, err := parseOutputId(parts[0])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	spent, err := parseBool(parts[1])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	pageSize, err := parseInt(parts[2])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	return &LedgerUpdatesBySlotCursor{OutputId: id, IsSpent: spent, PageSize: pageSize}, nil
}

func (c *LedgerUpdatesBySlotCursor) String() string {
	return fmt.Sprintf("%s.%s.%d", c.OutputId, boolString(c.IsSpent), c.PageSize)
}

// IndexedOutputsCursor resumes within an indexer query: <slot>.<output_id>.<page_size>
type IndexedOutputsCursor struct {
	SlotIndex types.SlotIndex
	OutputId  types.OutputId
	PageSize  int
}

func ParseIndexedOutputsCursor(s string) (*IndexedOutputsCursor, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, &types.BadPagingState{Cursor: s, Reason: fmt.Sprintf("expected 3 fields, got %d", len(parts))}
	}
	slot, err := parseSlot(parts[0])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	id, err := parseOutputId(parts[1])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	pageSize, err := parseInt(parts[2])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	return &IndexedOutputsCursor{SlotIndex: slot, OutputId: id, PageSize: pageSize}, nil
}

func (c *IndexedOutputsCursor) String() string {
	return fmt.Sprintf("%d.%s.%d", c.SlotIndex, c.OutputId, c.PageSize)
}

// SlotsCursor resumes within a slot listing: <slot>.<page_size>
type SlotsCursor struct {
	SlotIndex types.SlotIndex
	PageSize  int
}

func ParseSlotsCursor(s string) (*SlotsCursor, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return nil, &types.BadPagingState{Cursor: s, Reason: fmt.Sprintf("expected 2 fields, got %d", len(parts))}
	}
	slot, err := parseSlot(parts[0])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	pageSize, err := parseInt(parts[1])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	return &SlotsCursor{SlotIndex: slot, PageSize: pageSize}, nil
}

func (c *SlotsCursor) String() string {
	return fmt.Sprintf("%d.%d", c.SlotIndex, c.PageSize)
}

// BlocksBySlotCursor resumes within a slot's blocks: <block_id>.<page_size>
type BlocksBySlotCursor struct {
	BlockId  types.BlockId
	PageSize int
}

func ParseBlocksBySlotCursor(s string) (*BlocksBySlotCursor, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return nil, &types.BadPagingState{Cursor: s, Reason: fmt.Sprintf("expected 2 fields, got %d", len(parts))}
	}
	id, err := parseBlockId(parts[0])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	pageSize, err := parseInt(parts[1])
	if err != nil {
		return nil, &types.BadPagingState{Cursor: s, Reason: err.Error()}
	}
	return &BlocksBySlotCursor{BlockId: id, PageSize: pageSize}, nil
}

func (c *BlocksBySlotCursor) String() string {
	return fmt.Sprintf("%s.%d", c.BlockId, c.PageSize)
}

// ClampPageSize enforces the "page_size is always clamped to the configured
// max_page_size" rule from §6.
func ClampPageSize(requested, max int) int {
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

func parseSlot(s string) (types.SlotIndex, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q: %w", s, err)
	}
	return types.SlotIndex(v), nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool %q", s)
	}
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseOutputId(s string) (types.OutputId, error) {
	if len(s) != 68 {
		return types.OutputId{}, fmt.Errorf("invalid output id %q", s)
	}
	b, err := hexDecode(s)
	if err != nil {
		return types.OutputId{}, err
	}
	return types.OutputIdFromBytes(b)
}

func parseBlockId(s string) (types.BlockId, error) {
	if len(s) != 72 {
		return types.BlockId{}, fmt.Errorf("invalid block id %q", s)
	}
	b, err := hexDecode(s)
	if err != nil {
		return types.BlockId{}, err
	}
	return types.BlockIdFromBytes(b)
}

func hexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
