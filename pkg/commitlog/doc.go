/*
Package commitlog gives Chronicle's per-milestone apply (§4.1) durability
and ordering guarantees by routing every apply through a single-node raft
log before it touches pkg/storage.

# Why raft for a single node

There is exactly one voter, bootstrapped once at Open and never joined by
peers — this is not a consensus mechanism. It exists because raft already
solves "durably append, in order, then apply exactly once" with a
well-tested log + FSM split, and hashicorp/raft-boltdb gives that log
crash-safe storage for free. The alternative would be hand-rolling a
write-ahead log with the same properties; reusing raft's machinery for a
single member is cheaper and better tested than that would be.

FSM.Snapshot/Restore are intentionally thin: the ledger's actual durable
state lives in pkg/storage, independent of the raft log, so a raft
snapshot only needs to record which slot is already reflected there so the
log can be truncated. Restoring from a snapshot is a no-op beyond draining
the reader for the same reason.

# Usage

	cl, err := commitlog.Open(dataDir, bindAddr, store)
	...
	cmd, err := commitlog.NewApplyMilestoneCommand(created, consumed, updates, blocks, committed)
	...
	if err := cl.Apply(cmd, 5*time.Second); err != nil {
		...
	}
*/
package commitlog
