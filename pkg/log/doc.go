/*
Package log provides structured logging for Chronicle using zerolog.

Wraps zerolog with JSON or console output, a package-level Logger
initialized once via Init, and context-logger constructors for the fields
the ingestion and solidifier packages attach most often: component,
milestone (slot index), address, output id, worker id.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	ingestLog := log.WithComponent("ingest")
	ingestLog.Info().Uint32("slot_index", 101).Msg("milestone applied")

	workerLog := log.WithWorker(3)
	workerLog.Debug().Msg("past-cone walk resumed")

# Design

Global logger, not dependency-injected: every package reaches `log.Logger`
or a `WithX` child directly, matching the rest of the ambient stack
(pkg/metrics, pkg/events). Initialize before any other package logs.
*/
package log
