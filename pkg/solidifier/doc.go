/*
Package solidifier implements the legacy pre-Stardust past-cone walk
(§4.6): N independent workers, milestone m routed to worker m mod N, each
walking a MilestoneState{process_queue, visited} until every reachable
block is confirmed referenced by that milestone.

A worker that hits a block missing from the store, or present but not yet
carrying reference metadata, parks its state on a fetchRequest sent over
its own channel rather than blocking on the network directly; a
supervisor-owned dispatcher goroutine per worker performs the actual
upstream call and resumes the worker by replying on the request's own
response channel. Cross-worker ordering is unconstrained: milestones are
solidified independently, and no worker holds a lock belonging to another.

This package also carries the legacy proof-of-inclusion Merkle tree
(proof.go), the artifact a resolved past-cone makes available for free:
once a milestone's block ids are known, any one of them can be proven a
member of that set without revealing the rest.
*/
package solidifier
