// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: blocking.go — one-OS-thread-per-connection session (§4.4)
//
// Purpose:
//   - Identical state machine and contract to AsyncSession, but pins its
//     own dedicated OS thread for the lifetime of the connection instead
//     of sharing a reactor worker. Blocking socket reads use a short recv
//     deadline solely to poll the cooperative stop token.
// ─────────────────────────────────────────────────────────────────────────────

package session

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/codewanderer/wsingest/affinity"
	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/wsurl"
)

// BlockingSession runs its connect-read loop on a dedicated, optionally
// pinned, OS thread.
type BlockingSession struct {
	core *core
	pin  bool
	done sync.WaitGroup
}

// NewBlocking constructs a blocking session. If pin is true, the session's
// thread is bound to the least-busy allowed CPU for its lifetime.
func NewBlocking(pin bool, index int, ep wsurl.Endpoint, dialer Dialer, payloads *ring.SlotRing[payload.RawOrderUpdate], latencies *ring.SlotRing[latency.Event], stop *control.StopToken) *BlockingSession {
	return &BlockingSession{
		core: newCore(index, ep, dialer, payloads, latencies, stop),
		pin:  pin,
	}
}

// Start spawns the dedicated OS thread and returns immediately.
func (s *BlockingSession) Start() {
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if s.pin {
			if allowed, err := affinity.AllowedCPUs(); err == nil {
				if cpu, err := affinity.Assign(allowed); err == nil {
					defer affinity.Release(cpu)
					_ = affinity.Pin(cpu)
				}
			}
		}

		s.run()
	}()
}

// Stop requests shutdown and waits for the session's thread to exit.
func (s *BlockingSession) Stop() {
	s.core.stop.Stop()
	s.done.Wait()
}

func (s *BlockingSession) run() {
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

func (s *BlockingSession) readUntilErrorOrStop(conn Conn) {
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
