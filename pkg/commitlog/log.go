package commitlog

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

const localServerID = "chronicle-local"

// CommitLog is a single-node raft write-ahead log wrapping an FSM over
// pkg/storage. It is not a consensus mechanism — there is exactly one
// voter, bootstrapped once and never joined by peers — it exists purely so
// a per-milestone apply is durable and ordered before it is acknowledged,
// and so a crash mid-apply resumes from exactly where the log left off.
type CommitLog struct {
	raft *raft.Raft
	fsm  *FSM
}

// Open creates or reopens the commit log under dataDir, binding its
// (unused, single-node-only) raft transport to bindAddr.
func Open(dataDir, bindAddr string, store storage.Store) (*CommitLog, error) {
	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(localServerID)

	addr, err := net.ResolveTCPAddr("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve commit log bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("create commit log transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(dataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("create commit log snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "commitlog-log.db"))
	if err != nil {
		return nil, fmt.Errorf("create commit log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "commitlog-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("create commit log stable store: %w", err)
	}

	fsm := NewFSM(store)
	r, err := raft.NewRaft(config, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("create commit log: %w", err)
	}

	hasState, err := raft.HasExistingState(logStore, stableStore, snapshotStore)
	if err != nil {
		return nil, fmt.Errorf("inspect commit log state: %w", err)
	}
	if !hasState {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{ID: config.LocalID, Address: transport.LocalAddr()},
			},
		}
		if err := r.BootstrapCluster(configuration).Error(); err != nil {
			return nil, fmt.Errorf("bootstrap commit log: %w", err)
		}
	}

	return &CommitLog{raft: r, fsm: fsm}, nil
}

// Apply submits a command and blocks until it is durably committed and
// applied. It returns the FSM's error, if any, distinct from a failure to
// commit the log entry itself.
func (c *CommitLog) Apply(cmd Command, timeout time.Duration) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal commit log command: %w", err)
	}

	future := c.raft.Apply(data, timeout)
	if err := future.Error(); err != nil {
		return fmt.Errorf("apply commit log entry: %w", err)
	}
	if resp := future.Response(); resp != nil {
		if applyErr, ok := resp.(error); ok {
			return applyErr
		}
	}
	return nil
}

// LastIndex returns the index of the last log entry, committed or not.
func (c *CommitLog) LastIndex() uint64 { return c.raft.LastIndex() }

// AppliedIndex returns the index of the last log entry applied to the FSM.
func (c *CommitLog) AppliedIndex() uint64 { return c.raft.AppliedIndex() }

// IsLeader reports whether this (only) node currently holds leadership; it
// is false for a short window right after Open, before the single-node
// election settles.
func (c *CommitLog) IsLeader() bool { return c.raft.State() == raft.Leader }

// WaitForLeader blocks until this node becomes leader or timeout elapses.
func (c *CommitLog) WaitForLeader(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.IsLeader() {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("commit log did not become leader within %s", timeout)
}

// Shutdown stops the commit log, blocking until it completes.
func (c *CommitLog) Shutdown() error {
	logger := log.WithComponent("commitlog")
	if err := c.raft.Shutdown().Error(); err != nil {
		logger.Warn().Err(err).Msg("commit log shutdown reported an error")
		return err
	}
	return nil
}
