package upstream

import (
	"testing"

	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutput(b byte) types.LedgerOutput {
	var txID types.TransactionID
	txID[0] = b
	return types.LedgerOutput{OutputId: types.OutputId{TransactionID: txID}}
}

func testSpent(b byte) types.LedgerSpent {
	return types.LedgerSpent{Output: testOutput(b)}
}

func TestDecoderHappyPath(t *testing.T) {
	d := newDecoder()

	records, err := d.feed(beginEvent(2, 1))
	require.NoError(t, err)
	assert.Nil(t, records)

	_, err = d.feed(createdEvent(testOutput(1)))
	require.NoError(t, err)
	_, err = d.feed(createdEvent(testOutput(2)))
	require.NoError(t, err)
	_, err = d.feed(consumedEvent(testSpent(3)))
	require.NoError(t, err)

	records, err = d.feed(endEvent(2, 1))
	require.NoError(t, err)
	require.NotNil(t, records)
	assert.Len(t, records.Created, 2)
	assert.Len(t, records.Consumed, 1)

	// Decoder is ready for the next milestone's Begin.
	_, err = d.feed(beginEvent(0, 0))
	require.NoError(t, err)
}

func TestDecoderRejectsDoubleBegin(t *testing.T) {
	d := newDecoder()
	_, err := d.feed(beginEvent(1, 0))
	require.NoError(t, err)

	_, err = d.feed(beginEvent(1, 0))
	require.Error(t, err)
	var countErr *types.InvalidLedgerUpdateCount
	assert.ErrorAs(t, err, &countErr)
}

func TestDecoderRejectsNonBeginWhileIdle(t *testing.T) {
	d := newDecoder()
	_, err := d.feed(createdEvent(testOutput(1)))
	require.Error(t, err)
	var stateErr *types.InvalidMilestoneState
	assert.ErrorAs(t, err, &stateErr)
}

func TestDecoderRejectsMismatchedEndCounts(t *testing.T) {
	d := newDecoder()
	_, err := d.feed(beginEvent(2, 0))
	require.NoError(t, err)
	_, err = d.feed(createdEvent(testOutput(1)))
	require.NoError(t, err)

	_, err = d.feed(endEvent(2, 0))
	require.Error(t, err)
	var countErr *types.InvalidLedgerUpdateCount
	require.ErrorAs(t, err, &countErr)
	assert.Equal(t, 1, countErr.ReceivedCreated)
	assert.Equal(t, 2, countErr.ExpectedCreated)

	// A failed substream resets to Idle so the next Begin can start over.
	_, err = d.feed(beginEvent(1, 0))
	require.NoError(t, err)
}

func TestDecoderEndOfStreamWhileBuildingFails(t *testing.T) {
	d := newDecoder()
	_, err := d.feed(beginEvent(1, 0))
	require.NoError(t, err)

	_, err = d.feed(streamEvent{Kind: eventEndOfStream})
	require.Error(t, err)
	var countErr *types.InvalidLedgerUpdateCount
	assert.ErrorAs(t, err, &countErr)
}

func TestDecoderEndOfStreamWhileIdleTerminates(t *testing.T) {
	d := newDecoder()
	_, err := d.feed(streamEvent{Kind: eventEndOfStream})
	assert.ErrorIs(t, err, errEndOfStream)
}
