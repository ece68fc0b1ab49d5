package storage

import (
	"fmt"
	"time"

	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/google/uuid"
)

// RecoveryReport is the result of a single corruption-recovery pass: a run
// id for correlating log lines with an operator's ticket, the cutoff slot
// used, and the row counts removed per collection.
type RecoveryReport struct {
	RunId    string
	Cutoff   types.SlotIndex
	Removed  map[string]int
	Duration time.Duration
}

// RecoverFromCorruption implements the legacy "remove rows newer than the
// latest committed slot" recovery behavior (§4.1): if a latest committed
// slot exists, truncate any row booked, spent, or committed strictly after
// it from every collection. It is a no-op (not an error) when the store is
// empty — there is nothing to recover from.
//
// The legacy remove_*_newer_than_milestone call is invoked with index 0
// during initial bootstrap, which is ambiguous between
// "truncate everything" and "truncate nothing" depending on backend
// semantics; this port resolves that ambiguity by requiring a real latest
// slot and refusing to run when none exists, so bootstrap never calls this
// path at all (it calls Store.TruncateAll directly instead).
func RecoverFromCorruption(store Store) (*RecoveryReport, error) {
	start := time.Now()
	runId := uuid.New().String()
	logger := log.WithComponent("storage-migrate")

	latest, err := store.GetLatestCommittedSlot()
	if err != nil {
		if _, ok := err.(*types.NoResults); ok {
			logger.Info().Str("run_id", runId).Msg("no committed slot, skipping corruption recovery")
			return &RecoveryReport{RunId: runId, Duration: time.Since(start)}, nil
		}
		return nil, fmt.Errorf("read latest committed slot: %w", err)
	}

	removed, err := store.TruncateNewerThan(latest.SlotIndex)
	if err != nil {
		return nil, fmt.Errorf("truncate newer than %d: %w", latest.SlotIndex, err)
	}

	report := &RecoveryReport{
		RunId:    runId,
		Cutoff:   latest.SlotIndex,
		Removed:  removed,
		Duration: time.Since(start),
	}
	logger.Info().
		Str("run_id", runId).
		Uint32("cutoff", uint32(latest.SlotIndex)).
		Interface("removed", removed).
		Dur("duration", report.Duration).
		Msg("corruption recovery complete")
	return report, nil
}
