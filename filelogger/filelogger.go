// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: filelogger.go — per-session latency file writer (§4.6)
//
// Purpose:
//   - One worker drains every session's latency ring round-robin, formats
//     abs(arrival_ms-event_ms) as a decimal line, and batches up to
//     constants.LoggerBatchSize lines per session into one vectored write.
//     Each session's file is opened once at registration time and never
//     touched by any other goroutine.
// ─────────────────────────────────────────────────────────────────────────────

package filelogger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/vio"
)

type sessionLog struct {
	index int
	ring  *ring.SlotRing[latency.Event]
	file  *os.File
	fd    int
}

// FileLogger drains N latency rings and writes one append-only file per
// session under dir.
type FileLogger struct {
	sessions []*sessionLog
	stop     *control.StopToken
	done     chan struct{}
}

// Open creates "<dir>/<mode>_conn_<i>_<YYYYMMDD_HHMMSS>.lat" for every
// ring, all stamped with the same registration time.
func Open(dir, mode string, rings []*ring.SlotRing[latency.Event], stop *control.StopToken) (*FileLogger, error) {
	stamp := time.Now().Format("20060102_150405")

	sessions := make([]*sessionLog, 0, len(rings))
	for i, r := range rings {
		name := fmt.Sprintf("%s_conn_%d_%s.lat", mode, i, stamp)
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			for _, s := range sessions {
				s.file.Close()
			}
			return nil, fmt.Errorf("filelogger: open %s: %w", path, err)
		}
		sessions = append(sessions, &sessionLog{
			index: i,
			ring:  r,
			file:  f,
			fd:    int(f.Fd()),
		})
	}

	return &FileLogger{
		sessions: sessions,
		stop:     stop,
		done:     make(chan struct{}),
	}, nil
}

// Run drains every session round-robin until stop is requested and all
// queues are empty, then flushes residuals once more and closes every
// file. Intended to run on its own dedicated worker thread.
func (l *FileLogger) Run() {
	for {
		progressed := false
		for _, s := range l.sessions {
			if l.drainOne(s) {
				progressed = true
			}
		}

		if l.stop.Stopped() && !progressed && l.allEmpty() {
			break
		}
		if !progressed {
			runtime.Gosched()
		}
	}

	for _, s := range l.sessions {
		l.drainOne(s)
	}
	for _, s := range l.sessions {
		s.file.Close()
	}
	close(l.done)
}

// Join requests shutdown and blocks until Run has flushed residuals and
// closed every file.
func (l *FileLogger) Join() {
	l.stop.Stop()
	<-l.done
}

func (l *FileLogger) allEmpty() bool {
	for _, s := range l.sessions {
		if s.ring.ReadySize() != 0 {
			return false
		}
	}
	return true
}

// drainOne pops up to constants.LoggerBatchSize events from one session's
// ring and flushes them with one vectored write. Returns true if anything
// was drained.
func (l *FileLogger) drainOne(s *sessionLog) bool {
	var iovs [][]byte
	handles := make([]uint32, 0, constants.LoggerBatchSize)

	for len(handles) < constants.LoggerBatchSize {
		ev, handle, ok := s.ring.Consume()
		if !ok {
			break
		}
		iovs = append(iovs, formatDeltaLine(ev.Delta()))
		handles = append(handles, handle)
	}

	if len(handles) == 0 {
		return false
	}

	if err := vio.WriteAll(s.fd, iovs); err != nil {
		logging.Err("LOG_WRITE", err)
	}
	for _, h := range handles {
		s.ring.Release(h)
	}
	return true
}

// formatDeltaLine renders a non-negative latency delta as ASCII decimal
// followed by a newline (§4.6, §6 latency file format).
func formatDeltaLine(delta int64) []byte {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendInt(buf, delta, 10)
	buf = append(buf, '\n')
	return buf
}
