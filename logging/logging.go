// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: logging.go — structured logging for cold-path diagnostics
//
// Purpose:
//   - Logs infrequent paths: connect/backoff/error transitions, startup
//     failures, shutdown. Never called from the ring hot path.
//
// Notes:
//   - Backed by zap's SugaredLogger; call shape mirrors the one-line-per-
//     transition discipline of §4.3 ("log the stage and error once per
//     transition") rather than a generic per-field logging API.
// ─────────────────────────────────────────────────────────────────────────────

package logging

import "go.uber.org/zap"

var logger *zap.SugaredLogger

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()
}

// SetLogger overrides the package-level logger, e.g. for tests or a
// development build with a more readable encoder.
func SetLogger(l *zap.Logger) {
	logger = l.Sugar()
}

// Sync flushes any buffered log entries. Call once at shutdown.
func Sync() {
	_ = logger.Sync()
}

// Err logs an error at a named stage ("connect", "read", "handshake", ...).
// One call per transition, per §4.3/§4.4 Error/backoff.
func Err(stage string, err error) {
	if err == nil {
		logger.Infow(stage)
		return
	}
	logger.Errorw(stage, "error", err)
}

// Event logs a cold-path informational message: connection state changes,
// startup/shutdown milestones.
func Event(stage, message string) {
	logger.Infow(stage, "msg", message)
}

// Fatal logs a FatalStartup-class error (§7) and is followed by the caller
// exiting with a non-zero code; it does not call os.Exit itself so tests can
// observe the log line.
func Fatal(stage string, err error) {
	logger.Errorw(stage, "error", err, "fatal", true)
}
