package upstream

import (
	"github.com/chronicle-go/chronicle/pkg/types"
)

// stateKind is the ledger-update substream decoder's state (§4.1's
// stream state machine), realized as an explicit enum rather than ad-hoc
// field initialization so every transition is total and testable in
// isolation.
type stateKind int

const (
	stateIdle stateKind = iota
	stateBuilding
	stateEmitted
)

// decoderState is the accumulator for one in-flight milestone. A fresh
// zero value is the Idle state.
type decoderState struct {
	kind             stateKind
	expectedCreated  int
	expectedConsumed int
	created          []types.LedgerOutput
	consumed         []types.LedgerSpent
}

// eventKind distinguishes the four wire events of one substream plus the
// out-of-band end-of-stream signal.
type eventKind int

const (
	eventBegin eventKind = iota
	eventCreated
	eventConsumed
	eventEnd
	eventEndOfStream
)

// streamEvent is one decoded wire event. Only the fields relevant to Kind
// are populated.
type streamEvent struct {
	Kind             eventKind
	ExpectedCreated  int
	ExpectedConsumed int
	Output           types.LedgerOutput
	Spent            types.LedgerSpent
}

func beginEvent(expectedCreated, expectedConsumed int) streamEvent {
	return streamEvent{Kind: eventBegin, ExpectedCreated: expectedCreated, ExpectedConsumed: expectedConsumed}
}

func createdEvent(o types.LedgerOutput) streamEvent {
	return streamEvent{Kind: eventCreated, Output: o}
}

func consumedEvent(s types.LedgerSpent) streamEvent {
	return streamEvent{Kind: eventConsumed, Spent: s}
}

func endEvent(createdCount, consumedCount int) streamEvent {
	return streamEvent{Kind: eventEnd, ExpectedCreated: createdCount, ExpectedConsumed: consumedCount}
}

// transition applies one streamEvent to state, returning the next state
// and, only on a successful End, the assembled (created, consumed) pair
// for the milestone. Every row of §4.1's transition table is a
// case here; nothing is handled implicitly.
func transition(state decoderState, ev streamEvent) (decoderState, *milestoneRecords, error) {
	switch ev.Kind {
	case eventBegin:
		if state.kind == stateBuilding {
			return state, nil, &types.InvalidLedgerUpdateCount{
				ReceivedCreated:  len(state.created),
				ExpectedCreated:  state.expectedCreated,
				ReceivedConsumed: len(state.consumed),
				ExpectedConsumed: state.expectedConsumed,
			}
		}
		return decoderState{
			kind:             stateBuilding,
			expectedCreated:  ev.ExpectedCreated,
			expectedConsumed: ev.ExpectedConsumed,
		}, nil, nil

	case eventCreated:
		if state.kind != stateBuilding {
			return state, nil, &types.InvalidMilestoneState{Event: "Created"}
		}
		next := state
		next.created = append(append([]types.LedgerOutput{}, state.created...), ev.Output)
		return next, nil, nil

	case eventConsumed:
		if state.kind != stateBuilding {
			return state, nil, &types.InvalidMilestoneState{Event: "Consumed"}
		}
		next := state
		next.consumed = append(append([]types.LedgerSpent{}, state.consumed...), ev.Spent)
		return next, nil, nil

	case eventEnd:
		if state.kind != stateBuilding {
			return state, nil, &types.InvalidMilestoneState{Event: "End"}
		}
		if len(state.created) != ev.ExpectedCreated || len(state.consumed) != ev.ExpectedConsumed ||
			ev.ExpectedCreated != state.expectedCreated || ev.ExpectedConsumed != state.expectedConsumed {
			return decoderState{}, nil, &types.InvalidLedgerUpdateCount{
				ReceivedCreated:  len(state.created),
				ExpectedCreated:  state.expectedCreated,
				ReceivedConsumed: len(state.consumed),
				ExpectedConsumed: state.expectedConsumed,
			}
		}
		records := &milestoneRecords{Created: state.created, Consumed: state.consumed}
		return decoderState{kind: stateEmitted}, records, nil

	case eventEndOfStream:
		if state.kind == stateBuilding {
			return state, nil, &types.InvalidLedgerUpdateCount{
				ReceivedCreated:  len(state.created),
				ExpectedCreated:  state.expectedCreated,
				ReceivedConsumed: len(state.consumed),
				ExpectedConsumed: state.expectedConsumed,
			}
		}
		return state, nil, errEndOfStream

	default:
		return state, nil, &types.InvalidMilestoneState{Event: "unknown"}
	}
}

// milestoneRecords is the (created, consumed) pair assembled by a
// completed Begin..End substream, before slot_index is attached by the
// caller (the stream frames carry it out-of-band).
type milestoneRecords struct {
	Created  []types.LedgerOutput
	Consumed []types.LedgerSpent
}

// decoder drives transition across a sequence of wire events, starting
// and resting in the Idle state between milestones (the Emitted state is
// equally ready to accept the next Begin).
type decoder struct {
	state decoderState
}

func newDecoder() *decoder {
	return &decoder{state: decoderState{kind: stateIdle}}
}

// feed applies one event and returns the completed milestone, if any.
func (d *decoder) feed(ev streamEvent) (*milestoneRecords, error) {
	next, records, err := transition(d.state, ev)
	d.state = next
	if err != nil {
		// A failed substream restarts from Idle (§7: fatal for that
		// substream, restart stream) rather than wedging the decoder.
		d.state = decoderState{kind: stateIdle}
		return nil, err
	}
	return records, nil
}
