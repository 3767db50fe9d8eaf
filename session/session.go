// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: session.go — connection state machine shared by async/blocking (§4.3, §4.4)
//
// Purpose:
//   - One connection, identified by a zero-based index, cycling through
//     Connecting → Connected → Reading → (Error|Shutdown) → (Backoff →
//     Connecting | Done) until stop is requested. Async and blocking
//     variants differ only in how their run loop is hosted (a reactor task
//     in async.go, a dedicated OS thread in blocking.go); the state machine,
//     backoff schedule and ring-publishing discipline live here.
// ─────────────────────────────────────────────────────────────────────────────

package session

import (
	"context"
	"time"

	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/metrics"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/wsurl"
)

// State names the session's current position in the §4.3 state machine.
type State int

const (
	Connecting State = iota
	Connected
	Reading
	Backoff
	Done
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Reading:
		return "Reading"
	case Backoff:
		return "Backoff"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Handle is the uniform capability the runner drives regardless of mode:
// {start, stop} plus "produces to (payload_ring, latency_ring)" (§9).
type Handle interface {
	Start()
	Stop()
}

// core holds the state and behavior common to both session variants.
type core struct {
	index    int
	endpoint wsurl.Endpoint
	dialer   Dialer
	payloads *ring.SlotRing[payload.RawOrderUpdate]
	latencies *ring.SlotRing[latency.Event]
	stop     *control.StopToken

	backoff time.Duration
	state   State
}

func newCore(index int, ep wsurl.Endpoint, dialer Dialer, payloads *ring.SlotRing[payload.RawOrderUpdate], latencies *ring.SlotRing[latency.Event], stop *control.StopToken) *core {
	return &core{
		index:     index,
		endpoint:  ep,
		dialer:    dialer,
		payloads:  payloads,
		latencies: latencies,
		stop:      stop,
		backoff:   constants.BackoffInitial,
		state:     Connecting,
	}
}

// resetBackoff restores the schedule to its initial value after a successful
// handshake sequence (§4.3 Error/backoff).
func (c *core) resetBackoff() {
	c.backoff = constants.BackoffInitial
}

// sleepBackoff sleeps the current backoff duration, then doubles it, capped
// at constants.BackoffCap. Returns early if stop is requested mid-sleep.
func (c *core) sleepBackoff() {
	c.state = Backoff
	d := c.backoff
	logging.Event("BACKOFF", "conn "+itoa(c.index)+" sleeping "+d.String())
	metrics.BackoffAttempts.Inc()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if c.stop.Stopped() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	next := c.backoff * 2
	if next > constants.BackoffCap {
		next = constants.BackoffCap
	}
	c.backoff = next
}

// connect runs the §4.3 connect sequence and transitions to Connected on
// success. Every failure is one ConnectError, logged once.
func (c *core) connect(ctx context.Context) (Conn, error) {
	c.state = Connecting
	conn, err := c.dialer.Dial(ctx, c.endpoint)
	if err != nil {
		logging.Err("CONNECT", err)
		return nil, err
	}
	c.state = Connected
	c.resetBackoff()
	return conn, nil
}

// handleFrame performs the §4.3 read-loop body for one already-read frame:
// acquire a payload slot (spinning, never dropping), copy the frame in,
// stamp arrival time, push a latency event (drop-on-full), publish.
func (c *core) handleFrame(frame []byte) {
	slot, handle, ok := c.payloads.AcquireSpin(constants.AcquireSpinAttempts)
	for !ok {
		// Producer-side exhaustion: yield and retry, never drop a payload frame.
		metrics.PayloadRingDrops.Inc()
		time.Sleep(time.Microsecond)
		slot, handle, ok = c.payloads.AcquireSpin(constants.AcquireSpinAttempts)
	}

	slot.Clear()
	slot.Append(frame)

	arrivalMs := time.Now().UnixMilli()
	eventMs := payload.ExtractEventTimestampMs(frame)

	if lslot, lhandle, ok := c.latencies.Acquire(); ok {
		*lslot = latency.Event{ArrivalMs: arrivalMs, EventMs: eventMs}
		c.latencies.Publish(lhandle)
	} else {
		// Latency ring full: drop the event per §4.1/§7 RingFull policy.
		metrics.LatencyRingDrops.Inc()
	}

	c.payloads.Publish(handle)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
