// control.go — cooperative shutdown signaling for sessions, merger and logger
// ════════════════════════════════════════════════════════════════════════════
// Control provides the stop-token contract used across the thread model of
// §5: sessions (async and blocking) poll it at each recv deadline, and the
// merger/logger treat it as the "stop requested" edge of their state machines
// (§4.5/§4.6). The runner gives sessions and sinks separate tokens.
//
// Threading model:
//   - StopToken.Stop() is idempotent and may be called any number of times,
//     from any goroutine (every session's Stop and every sink's Join call it).
//   - StopToken.Stopped() is safe for concurrent polling from any number of
//     goroutines.
// ════════════════════════════════════════════════════════════════════════════

package control

import "sync/atomic"

// StopToken is a lock-free, idempotent shutdown signal. One token may be
// shared by any number of pollers (e.g. every session, or the merger and
// the logger).
type StopToken struct {
	stopped atomic.Bool
}

// NewStopToken returns a StopToken in the running state.
func NewStopToken() *StopToken {
	return &StopToken{}
}

// Stop requests cooperative shutdown. Idempotent.
func (t *StopToken) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether shutdown has been requested.
func (t *StopToken) Stopped() bool {
	return t.stopped.Load()
}
