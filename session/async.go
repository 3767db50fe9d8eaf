// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: async.go — cooperative async session (§4.2, §4.3)
//
// Purpose:
//   - Registers its connect-read loop as a task on a Reactor. The loop
//     yields at every suspension point (connect, handshake, WS read,
//     backoff timer) by virtue of being an ordinary goroutine performing
//     network I/O: Go's runtime parks the goroutine rather than blocking
//     an OS thread, so many async sessions share the runtime's threads.
//     The task runs as a plain goroutine, not on the reactor's pinned
//     worker threads.
// ─────────────────────────────────────────────────────────────────────────────

package session

import (
	"context"
	"time"

	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/wsurl"
)

// Reactor is the subset of the reactor package's capability async sessions
// depend on: registering a long-lived task and waiting for it at shutdown.
type Reactor interface {
	Register(task func())
}

// AsyncSession is a cooperative session hosted by a Reactor.
type AsyncSession struct {
	core    *core
	reactor Reactor
}

// NewAsync constructs an async session. payloads and latencies are the
// per-session rings the runner has already created; stop is shared across
// all sessions.
func NewAsync(reactor Reactor, index int, ep wsurl.Endpoint, dialer Dialer, payloads *ring.SlotRing[payload.RawOrderUpdate], latencies *ring.SlotRing[latency.Event], stop *control.StopToken) *AsyncSession {
	return &AsyncSession{
		core:    newCore(index, ep, dialer, payloads, latencies, stop),
		reactor: reactor,
	}
}

// Start registers the session's run loop with the reactor. Non-blocking.
func (s *AsyncSession) Start() {
	s.reactor.Register(s.run)
}

// Stop requests shutdown; the run loop observes it at its next poll.
func (s *AsyncSession) Stop() {
	s.core.stop.Stop()
}

func (s *AsyncSession) run() {
	c := s.core
	ctx := context.Background()

	for {
		if c.stop.Stopped() {
			c.state = Done
			return
		}

		conn, err := c.connect(ctx)
		if err != nil {
			c.sleepBackoff()
			continue
		}

		s.readUntilErrorOrStop(conn)
		conn.Close()

		if c.stop.Stopped() {
			c.state = Done
			return
		}
		c.sleepBackoff()
	}
}

// readUntilErrorOrStop reads frames until the connection errors or stop is
// observed. A short read deadline doubles as the cooperative poll point.
func (s *AsyncSession) readUntilErrorOrStop(conn Conn) {
	c := s.core
	c.state = Reading

	for {
		if c.stop.Stopped() {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(constants.BlockingRecvDeadline))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			logging.Err("READ", err)
			return
		}

		c.handleFrame(frame)
	}
}
