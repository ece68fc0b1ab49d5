package upstream

import (
	"context"
	"testing"

	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory Client used to exercise code that depends
// only on the Client interface, without a real node or gRPC transport.
type fakeClient struct {
	status    types.NodeStatus
	config    types.NodeConfiguration
	unspent   []UnspentOutputRecord
	updates   []LedgerUpdate
}

var _ Client = (*fakeClient)(nil)

func (f *fakeClient) NodeStatus(context.Context) (*types.NodeStatus, error) {
	return &f.status, nil
}

func (f *fakeClient) NodeConfiguration(context.Context) (*types.NodeConfiguration, error) {
	return &f.config, nil
}

func (f *fakeClient) UnspentOutputs(ctx context.Context) (<-chan UnspentOutputRecord, <-chan error) {
	out := make(chan UnspentOutputRecord, len(f.unspent))
	errc := make(chan error, 1)
	for _, rec := range f.unspent {
		out <- rec
	}
	close(out)
	return out, errc
}

func (f *fakeClient) LedgerUpdates(ctx context.Context, startSlot types.SlotIndex) (<-chan LedgerUpdate, <-chan error) {
	out := make(chan LedgerUpdate, len(f.updates))
	errc := make(chan error, 1)
	for _, u := range f.updates {
		if u.SlotIndex >= startSlot {
			out <- u
		}
	}
	close(out)
	return out, errc
}

func (f *fakeClient) AcceptedBlocks(context.Context, types.SlotIndex) (<-chan AcceptedBlock, <-chan error) {
	out := make(chan AcceptedBlock)
	errc := make(chan error, 1)
	close(out)
	return out, errc
}

func (f *fakeClient) ReadMilestone(_ context.Context, index types.SlotIndex) (*Milestone, error) {
	return &Milestone{SlotIndex: index}, nil
}

func (f *fakeClient) ReadMilestoneCone(_ context.Context, index types.SlotIndex) (*MilestoneCone, error) {
	return &MilestoneCone{SlotIndex: index}, nil
}

func (f *fakeClient) ReadProtocolParameters(_ context.Context, index types.SlotIndex) (*types.ProtocolParameters, error) {
	return &types.ProtocolParameters{StartEpoch: uint64(index)}, nil
}

func (f *fakeClient) Close() error { return nil }

func TestFakeClientUnspentOutputsStream(t *testing.T) {
	fake := &fakeClient{
		unspent: []UnspentOutputRecord{
			{Output: testOutput(1), SlotIndex: 5},
			{Output: testOutput(2), SlotIndex: 5},
		},
	}

	out, errc := fake.UnspentOutputs(context.Background())
	var got []UnspentOutputRecord
	for rec := range out {
		got = append(got, rec)
	}
	assert.Len(t, got, 2)

	select {
	case err := <-errc:
		require.NoError(t, err)
	default:
	}
}

func TestFakeClientLedgerUpdatesFiltersByStartSlot(t *testing.T) {
	fake := &fakeClient{
		updates: []LedgerUpdate{
			{SlotIndex: 10},
			{SlotIndex: 11},
			{SlotIndex: 12},
		},
	}

	out, _ := fake.LedgerUpdates(context.Background(), 11)
	var slots []types.SlotIndex
	for u := range out {
		slots = append(slots, u.SlotIndex)
	}
	assert.Equal(t, []types.SlotIndex{11, 12}, slots)
}

func TestDecodeFrameRejectsUnknownKind(t *testing.T) {
	_, err := decodeFrame(ledgerUpdateFrame{Kind: "bogus"})
	assert.Error(t, err)
}

func TestDecodeFrameRequiresOutputOnCreated(t *testing.T) {
	_, err := decodeFrame(ledgerUpdateFrame{Kind: frameCreated})
	assert.Error(t, err)
}
