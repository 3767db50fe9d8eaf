// ════════════════════════════════════════════════════════════════════════════════════════════════
// wsingest - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: Low-Latency Multi-Connection Event Ingester
// Component: Main Entry Point & System Orchestration
//
// Description:
//   Parses CLI flags, constructs the runner, and drives it until a
//   shutdown deadline or an interrupt signal arrives.
//
// Architecture:
//   - Phase 1: Flag parsing and validation
//   - Phase 2: Runner construction (rings, sessions, merger, logger)
//   - Phase 3: Run until deadline or signal, then graceful teardown
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codewanderer/wsingest/config"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/metrics"
	"github.com/codewanderer/wsingest/runner"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// MAIN ORCHESTRATION
// ═══════════════════════════════════════════════════════════════════════════════════════════════

func main() {
	defer logging.Sync()

	// PHASE 1: Flag parsing and validation
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logging.Fatal("CONFIG", err)
		os.Exit(1)
	}

	metrics.Register()

	logging.Event("INIT", "starting "+cfg.Mode+" mode, "+cfg.URL.Host+cfg.URL.Path)

	// PHASE 2: Runner construction (rings, sessions, merger, logger)
	r, err := runner.New(cfg)
	if err != nil {
		logging.Fatal("STARTUP", err)
		os.Exit(1)
	}

	ctx, cancel := setupSignalHandling()
	defer cancel()

	// PHASE 3: Run until deadline or signal, then graceful teardown
	if err := r.Run(ctx); err != nil {
		logging.Err("RUN", err)
		os.Exit(1)
	}

	logging.Event("DONE", "shutdown complete")
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SYSTEM LIFECYCLE MANAGEMENT
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// setupSignalHandling returns a context canceled on SIGINT/SIGTERM.
func setupSignalHandling() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
