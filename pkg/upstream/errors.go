package upstream

import "errors"

// errEndOfStream signals a clean end-of-stream while the decoder was
// resting (Idle/Emitted) — not an error condition, a termination signal.
var errEndOfStream = errors.New("upstream: ledger update stream ended")
