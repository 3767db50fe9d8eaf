// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — global tunables for the ingester pipeline
//
// Purpose:
//   - Defines ring capacities, hold-back window, batch sizing and backoff
//     schedule shared across session, merger and logger packages.
//
// Notes:
//   - No runtime logic here — all values must be compile-time resolvable.
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Ring capacities ─────────────────────────────

const (
	// PayloadRingCapacity is C for per-session payload SlotRings (§3).
	PayloadRingCapacity = 16384

	// LatencyRingCapacity is C for per-session latency SlotRings (§3).
	LatencyRingCapacity = 65536
)

// ───────────────────────────── Merge ordering ──────────────────────────────

const (
	// HoldBackWindow is the delay between an entry's first observation and
	// its eligibility for emission (§4.5).
	HoldBackWindow = 20 * time.Millisecond

	// MergeBatchSize is the maximum number of entries collected per flush
	// pass before a vectored write (§4.5).
	MergeBatchSize = 64

	// MergeIovecSlots is 2x MergeBatchSize: one slot for payload bytes, one
	// for the trailing newline, per entry.
	MergeIovecSlots = 2 * MergeBatchSize
)

// ────────────────────────────── Logger batching ────────────────────────────

const (
	// LoggerBatchSize is the maximum number of latency lines packed into one
	// vectored write (§4.6).
	LoggerBatchSize = 128
)

// ───────────────────────────────── Backoff ─────────────────────────────────

const (
	// BackoffInitial is the first reconnect delay (§4.3).
	BackoffInitial = 200 * time.Millisecond

	// BackoffCap is the maximum reconnect delay (§4.3).
	BackoffCap = 5000 * time.Millisecond
)

// ──────────────────────────── Session I/O tunables ─────────────────────────

const (
	// BlockingRecvDeadline is the short recv deadline blocking sessions use
	// solely to poll the cooperative stop signal (§4.4).
	BlockingRecvDeadline = 200 * time.Millisecond

	// AcquireSpinAttempts bounds how many times a session spins on Acquire
	// before degrading to a scheduler yield (§4.1 Failure).
	AcquireSpinAttempts = 64
)

// ───────────────────────────── CPU affinity sampling ───────────────────────

const (
	// JiffiesSampleInterval is the gap between the two /proc/stat snapshots
	// used to estimate per-CPU utilization (§4.7).
	JiffiesSampleInterval = 175 * time.Millisecond
)
