package solidifier

import (
	"context"

	"github.com/chronicle-go/chronicle/pkg/types"
)

// Fetcher is the upstream worker a solidifier Worker parks a request with
// when a block is missing from the store or present without reference
// metadata.
type Fetcher interface {
	// FetchBlock is get_message(b): retrieve a block's bytes and parents
	// from upstream when the store has never seen it.
	FetchBlock(ctx context.Context, id types.BlockId) (*types.BlockDocument, error)
	// FetchMetadata is get_metadata(b): retrieve which milestone's White
	// Flag traversal referenced an already-known block.
	FetchMetadata(ctx context.Context, id types.BlockId) (types.SlotIndex, error)
}

type fetchKind string

const (
	fetchMessage  fetchKind = "message"
	fetchMetadata fetchKind = "metadata"
)

// fetchRequest is the mailbox message a Worker sends instead of blocking
// on the network directly; resume carries the reply back.
type fetchRequest struct {
	kind    fetchKind
	blockId types.BlockId
	resume  chan fetchResponse
}

type fetchResponse struct {
	doc       *types.BlockDocument
	milestone types.SlotIndex
	err       error
}
