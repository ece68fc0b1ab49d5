package upstream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is everything the ingestion worker needs from an upstream node
// (§6's upstream stream contract). A *GRPCClient is the real
// implementation; tests drive the worker against an in-memory fake
// implementing the same interface.
type Client interface {
	NodeStatus(ctx context.Context) (*types.NodeStatus, error)
	NodeConfiguration(ctx context.Context) (*types.NodeConfiguration, error)
	UnspentOutputs(ctx context.Context) (<-chan UnspentOutputRecord, <-chan error)
	LedgerUpdates(ctx context.Context, startSlot types.SlotIndex) (<-chan LedgerUpdate, <-chan error)
	AcceptedBlocks(ctx context.Context, slotIndex types.SlotIndex) (<-chan AcceptedBlock, <-chan error)
	ReadMilestone(ctx context.Context, index types.SlotIndex) (*Milestone, error)
	ReadMilestoneCone(ctx context.Context, index types.SlotIndex) (*MilestoneCone, error)
	ReadProtocolParameters(ctx context.Context, index types.SlotIndex) (*types.ProtocolParameters, error)
	Close() error
}

const (
	methodNodeStatus             = "/chronicle.inx.v1.INX/NodeStatus"
	methodNodeConfiguration      = "/chronicle.inx.v1.INX/NodeConfiguration"
	methodUnspentOutputs         = "/chronicle.inx.v1.INX/UnspentOutputs"
	methodLedgerUpdates          = "/chronicle.inx.v1.INX/LedgerUpdates"
	methodAcceptedBlocks         = "/chronicle.inx.v1.INX/AcceptedBlocks"
	methodReadMilestone          = "/chronicle.inx.v1.INX/ReadMilestone"
	methodReadMilestoneCone      = "/chronicle.inx.v1.INX/ReadMilestoneCone"
	methodReadProtocolParameters = "/chronicle.inx.v1.INX/ReadProtocolParameters"
)

// GRPCClient is the production Client, talking to a real upstream node
// over gRPC. There is no custody of node credentials here (Non-goal: no
// key custody) so the transport is plaintext — an operator fronting the
// node with mTLS does so outside this client.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// Connect dials addr with bounded retry: a transient connection failure
// (§7's "transient connection" row) sleeps retryInterval and tries again
// until ctx is done or the connection succeeds.
func Connect(ctx context.Context, addr string, retryInterval time.Duration) (*GRPCClient, error) {
	logger := log.WithComponent("upstream")
	for {
		conn, err := grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
		)
		if err == nil {
			return &GRPCClient{conn: conn}, nil
		}
		logger.Warn().Err(err).Str("addr", addr).Msg("upstream connection attempt failed, retrying")

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to upstream %s: %w", addr, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
}

func (c *GRPCClient) Close() error { return c.conn.Close() }

func (c *GRPCClient) NodeStatus(ctx context.Context) (*types.NodeStatus, error) {
	var resp types.NodeStatus
	if err := c.conn.Invoke(ctx, methodNodeStatus, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("node status: %w", err)
	}
	return &resp, nil
}

func (c *GRPCClient) NodeConfiguration(ctx context.Context) (*types.NodeConfiguration, error) {
	var resp types.NodeConfiguration
	if err := c.conn.Invoke(ctx, methodNodeConfiguration, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("node configuration: %w", err)
	}
	return &resp, nil
}

func (c *GRPCClient) ReadMilestone(ctx context.Context, index types.SlotIndex) (*Milestone, error) {
	var resp Milestone
	if err := c.conn.Invoke(ctx, methodReadMilestone, index, &resp); err != nil {
		return nil, fmt.Errorf("read milestone %d: %w", index, err)
	}
	return &resp, nil
}

func (c *GRPCClient) ReadMilestoneCone(ctx context.Context, index types.SlotIndex) (*MilestoneCone, error) {
	var resp MilestoneCone
	if err := c.conn.Invoke(ctx, methodReadMilestoneCone, index, &resp); err != nil {
		return nil, fmt.Errorf("read milestone cone %d: %w", index, err)
	}
	return &resp, nil
}

func (c *GRPCClient) ReadProtocolParameters(ctx context.Context, index types.SlotIndex) (*types.ProtocolParameters, error) {
	var resp types.ProtocolParameters
	if err := c.conn.Invoke(ctx, methodReadProtocolParameters, index, &resp); err != nil {
		return nil, fmt.Errorf("read protocol parameters %d: %w", index, err)
	}
	return &resp, nil
}

var serverStreamDesc = &grpc.StreamDesc{ServerStreams: true}

func (c *GRPCClient) UnspentOutputs(ctx context.Context) (<-chan UnspentOutputRecord, <-chan error) {
	out := make(chan UnspentOutputRecord)
	errc := make(chan error, 1)

	stream, err := c.conn.NewStream(ctx, serverStreamDesc, methodUnspentOutputs)
	if err != nil {
		errc <- fmt.Errorf("open unspent outputs stream: %w", err)
		close(out)
		return out, errc
	}
	if err := stream.SendMsg(struct{}{}); err != nil {
		errc <- fmt.Errorf("request unspent outputs: %w", err)
		close(out)
		return out, errc
	}
	if err := stream.CloseSend(); err != nil {
		errc <- fmt.Errorf("close unspent outputs request: %w", err)
		close(out)
		return out, errc
	}

	go func() {
		defer close(out)
		for {
			var rec UnspentOutputRecord
			if err := stream.RecvMsg(&rec); err != nil {
				if err != io.EOF {
					errc <- fmt.Errorf("recv unspent output: %w", err)
				}
				return
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc
}

func (c *GRPCClient) AcceptedBlocks(ctx context.Context, slotIndex types.SlotIndex) (<-chan AcceptedBlock, <-chan error) {
	out := make(chan AcceptedBlock)
	errc := make(chan error, 1)

	stream, err := c.conn.NewStream(ctx, serverStreamDesc, methodAcceptedBlocks)
	if err != nil {
		errc <- fmt.Errorf("open accepted blocks stream: %w", err)
		close(out)
		return out, errc
	}
	if err := stream.SendMsg(slotIndex); err != nil {
		errc <- fmt.Errorf("request accepted blocks: %w", err)
		close(out)
		return out, errc
	}
	if err := stream.CloseSend(); err != nil {
		errc <- fmt.Errorf("close accepted blocks request: %w", err)
		close(out)
		return out, errc
	}

	go func() {
		defer close(out)
		for {
			var block AcceptedBlock
			if err := stream.RecvMsg(&block); err != nil {
				if err != io.EOF {
					errc <- fmt.Errorf("recv accepted block: %w", err)
				}
				return
			}
			select {
			case out <- block:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc
}

// LedgerUpdates opens the ledger-update substream starting at startSlot
// and decodes the Begin/Created*/Consumed*/End wire frames into one
// LedgerUpdate per milestone using the decoder in stream.go.
func (c *GRPCClient) LedgerUpdates(ctx context.Context, startSlot types.SlotIndex) (<-chan LedgerUpdate, <-chan error) {
	out := make(chan LedgerUpdate)
	errc := make(chan error, 1)

	stream, err := c.conn.NewStream(ctx, serverStreamDesc, methodLedgerUpdates)
	if err != nil {
		errc <- fmt.Errorf("open ledger updates stream: %w", err)
		close(out)
		return out, errc
	}
	if err := stream.SendMsg(startSlot); err != nil {
		errc <- fmt.Errorf("request ledger updates from %d: %w", startSlot, err)
		close(out)
		return out, errc
	}
	if err := stream.CloseSend(); err != nil {
		errc <- fmt.Errorf("close ledger updates request: %w", err)
		close(out)
		return out, errc
	}

	go func() {
		defer close(out)
		d := newDecoder()
		var pending ledgerUpdateFrame

		for {
			var frame ledgerUpdateFrame
			recvErr := stream.RecvMsg(&frame)
			if recvErr != nil {
				if recvErr != io.EOF {
					errc <- fmt.Errorf("recv ledger update frame: %w", recvErr)
					return
				}
				if _, err := d.feed(streamEvent{Kind: eventEndOfStream}); err != nil && err != errEndOfStream {
					errc <- err
				}
				return
			}

			ev, err := decodeFrame(frame)
			if err != nil {
				errc <- err
				return
			}
			if frame.Kind == frameBegin {
				pending = frame
			}

			records, err := d.feed(ev)
			if err != nil {
				errc <- err
				return
			}
			if records == nil {
				continue
			}

			update := LedgerUpdate{
				SlotIndex:       pending.SlotIndex,
				CommitmentId:    pending.CommitmentId,
				CommitmentBytes: pending.CommitmentBytes,
				Created:         records.Created,
				Consumed:        records.Consumed,
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc
}

func decodeFrame(frame ledgerUpdateFrame) (streamEvent, error) {
	switch frame.Kind {
	case frameBegin:
		return beginEvent(frame.CreatedCount, frame.ConsumedCount), nil
	case frameCreated:
		if frame.Output == nil {
			return streamEvent{}, fmt.Errorf("upstream: created frame missing output")
		}
		return createdEvent(*frame.Output), nil
	case frameConsumed:
		if frame.Spent == nil {
			return streamEvent{}, fmt.Errorf("upstream: consumed frame missing spent output")
		}
		return consumedEvent(*frame.Spent), nil
	case frameEnd:
		return endEvent(frame.CreatedCount, frame.ConsumedCount), nil
	default:
		return streamEvent{}, fmt.Errorf("upstream: unknown frame kind %q", frame.Kind)
	}
}
