// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: runner.go — construct, start, and stop every component (§5)
//
// Purpose:
//   - Wires N sessions (async, hosted by a Reactor, or blocking, each on
//     its own thread) to N payload/latency ring pairs, a StreamMerger, and
//     a FileLogger, then waits for either a shutdown deadline or an
//     external cancellation before tearing everything down in order:
//     sessions first (so rings stop filling), then the reactor, then the
//     merger and logger drain and close.
// ─────────────────────────────────────────────────────────────────────────────

package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codewanderer/wsingest/config"
	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/filelogger"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/merger"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/reactor"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/session"
)

// Runner owns every component's lifecycle for one program invocation.
//
// Sessions and sinks (merger, logger) deliberately do NOT share a stop
// token. Sinks must keep draining until every session has fully stopped
// pushing (§4.5/§5: "no outstanding payloads are lost provided all
// sessions have stopped pushing") — if they shared one token, a sink could
// observe stop and quiesce against a transiently-empty ring while a
// still-running session (blocking sessions poll at up to
// constants.BlockingRecvDeadline) published one more frame afterward.
// sessionStop is raised first and waited out; sinkStop is raised only once
// Run has confirmed every session has exited.
type Runner struct {
	cfg         config.Config
	sessionStop *control.StopToken
	sinkStop    *control.StopToken
	reactor     *reactor.Reactor
	sessions    []session.Handle
	merger      *merger.StreamMerger
	logger      *filelogger.FileLogger
}

// New constructs a Runner against real network endpoints.
func New(cfg config.Config) (*Runner, error) {
	return build(cfg, session.NewDialer())
}

// NewWithDialer constructs a Runner against an injected Dialer. Exposed for
// tests that must not open real sockets.
func NewWithDialer(cfg config.Config, dialer session.Dialer) (*Runner, error) {
	return build(cfg, dialer)
}

func build(cfg config.Config, dialer session.Dialer) (*Runner, error) {
	sessionStop := control.NewStopToken()
	sinkStop := control.NewStopToken()

	payloadRings := make([]*ring.SlotRing[payload.RawOrderUpdate], cfg.Num)
	latencyRings := make([]*ring.SlotRing[latency.Event], cfg.Num)
	for i := 0; i < cfg.Num; i++ {
		payloadRings[i] = ring.New[payload.RawOrderUpdate](constants.PayloadRingCapacity)
		latencyRings[i] = ring.New[latency.Event](constants.LatencyRingCapacity)
	}

	m, err := merger.Open(cfg.Out, payloadRings, sinkStop)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	l, err := filelogger.Open("latencies", cfg.Mode, latencyRings, sinkStop)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	r := &Runner{cfg: cfg, sessionStop: sessionStop, sinkStop: sinkStop, merger: m, logger: l}

	if cfg.Mode == "async" {
		r.reactor = reactor.New(1, true)
		for i := 0; i < cfg.Num; i++ {
			s := session.NewAsync(r.reactor, i, cfg.URL, dialer, payloadRings[i], latencyRings[i], sessionStop)
			r.sessions = append(r.sessions, s)
		}
	} else {
		for i := 0; i < cfg.Num; i++ {
			s := session.NewBlocking(true, i, cfg.URL, dialer, payloadRings[i], latencyRings[i], sessionStop)
			r.sessions = append(r.sessions, s)
		}
	}

	return r, nil
}

// Run starts every component, blocks until ctx is canceled or the
// configured --seconds deadline elapses, then tears down in dependency
// order and returns the worker group's result. The merger and logger
// workers handle their own errors and always return nil, so Run returns nil.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if r.reactor != nil {
		r.reactor.Start()
	}
	for _, s := range r.sessions {
		s.Start()
	}

	g.Go(func() error {
		r.merger.Run()
		return nil
	})
	g.Go(func() error {
		r.logger.Run()
		return nil
	})

	r.waitForDeadline(gctx)

	logging.Event("SHUTDOWN", "stopping sessions")
	for _, s := range r.sessions {
		s.Stop()
	}
	if r.reactor != nil {
		r.reactor.Stop()
	}

	logging.Event("SHUTDOWN", "draining merger and logger")
	r.merger.Join()
	r.logger.Join()

	return g.Wait()
}

func (r *Runner) waitForDeadline(ctx context.Context) {
	if r.cfg.Seconds <= 0 {
		<-ctx.Done()
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(r.cfg.Seconds) * time.Second):
	}
}
