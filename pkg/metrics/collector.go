package metrics

import (
	"time"

	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/storage"
)

// RaftStats is satisfied by pkg/commitlog's log wrapper; collector.go keeps
// it as a narrow local interface rather than importing pkg/commitlog
// directly, since commitlog's own apply path reports into these same
// metrics and an import the other way would cycle.
type RaftStats interface {
	LastIndex() uint64
	AppliedIndex() uint64
}

// Collector periodically samples pkg/storage and the local write-ahead log
// into the package's prometheus gauges, the way a live dashboard expects
// gauges to be fresh without every write path touching them directly.
type Collector struct {
	store  storage.Store
	raft   RaftStats
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector. raft may be nil before the
// commit log is initialized; CommitLogIndex/CommitLogAppliedIndex are then
// simply left at zero.
func NewCollector(store storage.Store, raft RaftStats) *Collector {
	return &Collector{
		store:  store,
		raft:   raft,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectStoreMetrics()
	c.collectCommitLogMetrics()
}

func (c *Collector) collectStoreMetrics() {
	logger := log.WithComponent("metrics-collector")

	if count, err := c.store.CountOutputs(); err == nil {
		OutputsTotal.Set(float64(count))
	} else {
		logger.Debug().Err(err).Msg("count outputs failed")
	}

	if count, err := c.store.CountBlocks(); err == nil {
		BlocksTotal.Set(float64(count))
	} else {
		logger.Debug().Err(err).Msg("count blocks failed")
	}

	if latest, err := c.store.GetLatestCommittedSlot(); err == nil {
		LedgerIndex.Set(float64(latest.SlotIndex))
	}
}

func (c *Collector) collectCommitLogMetrics() {
	if c.raft == nil {
		return
	}
	CommitLogIndex.Set(float64(c.raft.LastIndex()))
	CommitLogAppliedIndex.Set(float64(c.raft.AppliedIndex()))
}
