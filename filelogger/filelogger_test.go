package filelogger

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/latency"
	"github.com/codewanderer/wsingest/ring"
)

func newLatencyRing() *ring.SlotRing[latency.Event] {
	return ring.New[latency.Event](16)
}

func pushEvent(t *testing.T, r *ring.SlotRing[latency.Event], arrival, event int64) {
	t.Helper()
	slot, handle, ok := r.Acquire()
	if !ok {
		t.Fatal("acquire failed")
	}
	*slot = latency.Event{ArrivalMs: arrival, EventMs: event}
	if !r.Publish(handle) {
		t.Fatal("publish failed")
	}
}

func TestFileLoggerWritesOneLinePerEvent(t *testing.T) {
	dir := t.TempDir()
	r0, r1 := newLatencyRing(), newLatencyRing()
	pushEvent(t, r0, 1010, 1000)
	pushEvent(t, r0, 1025, 1000)
	pushEvent(t, r1, 2000, 1990)

	stop := control.NewStopToken()
	l, err := Open(dir, "async", []*ring.SlotRing[latency.Event]{r0, r1}, stop)
	if err != nil {
		t.Fatal(err)
	}

	go l.Run()
	time.Sleep(20 * time.Millisecond)
	l.Join()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 latency files, got %d", len(entries))
	}

	var conn0File string
	for _, e := range entries {
		if strings.Contains(e.Name(), "conn_0_") {
			conn0File = e.Name()
		}
	}
	if conn0File == "" {
		t.Fatal("expected a conn_0 latency file")
	}

	data, err := os.ReadFile(filepath.Join(dir, conn0File))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines in conn_0 file, got %d: %q", len(lines), string(data))
	}
	if lines[0] != "10" || lines[1] != "25" {
		t.Fatalf("unexpected latency values: %v", lines)
	}
}

func TestFormatDeltaLine(t *testing.T) {
	got := formatDeltaLine(42)
	if string(got) != "42\n" {
		t.Fatalf("formatDeltaLine(42) = %q", got)
	}
}

func TestFileLoggerFilenameFormat(t *testing.T) {
	dir := t.TempDir()
	r0 := newLatencyRing()
	stop := control.NewStopToken()
	l, err := Open(dir, "sync", []*ring.SlotRing[latency.Event]{r0}, stop)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Join()
	go l.Run()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "sync_conn_0_") || !strings.HasSuffix(name, ".lat") {
		t.Fatalf("unexpected filename: %s", name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "sync_conn_0_"), ".lat")
	if _, err := strconv.ParseInt(stamp[:8], 10, 64); err != nil {
		t.Fatalf("filename date portion not numeric: %s", stamp)
	}
	stop.Stop()
}
