/*
Package upstream is Chronicle's client for the INX-style stream contract
(§6) an upstream node exposes: node status and configuration,
a one-shot unspent-output snapshot stream for bootstrap, and a continuous
ledger-update stream for steady-state ingestion.

# Transport

GRPCClient, the production Client, wraps a *grpc.ClientConn. There is no .proto in this pack to
generate stubs from, so request/response values are plain Go structs
registered with a custom codec (see codec.go) rather than generated
protobuf messages — grpc-go's Invoke/NewStream work with any registered
codec, not only protobuf's. google.golang.org/protobuf itself still
arrives transitively through grpc-go's own dependency graph.

# Stream decoding

The ledger-update stream is framed as four event kinds — Begin, Created,
Consumed, End — per milestone (§4.1's stream state machine). Decoding
that framing into one LedgerUpdate record per milestone is implemented as
an explicit state enum and transition function in stream.go, not ad-hoc
field initialization, per the Design Notes.
*/
package upstream
