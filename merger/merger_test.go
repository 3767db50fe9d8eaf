package merger

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/ring"
)

func newTestRing() *ring.SlotRing[payload.RawOrderUpdate] {
	return ring.New[payload.RawOrderUpdate](16)
}

func push(t *testing.T, r *ring.SlotRing[payload.RawOrderUpdate], body string) {
	t.Helper()
	slot, handle, ok := r.Acquire()
	require.True(t, ok)
	slot.Clear()
	slot.Append([]byte(body))
	require.True(t, r.Publish(handle))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	require.NoError(t, sc.Err())
	return lines
}

func extractU(t *testing.T, line string) uint64 {
	t.Helper()
	i := strings.Index(line, `"u":`)
	require.GreaterOrEqual(t, i, 0)
	rest := line[i+4:]
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		end = len(rest)
	}
	u, err := strconv.ParseUint(rest[:end], 10, 64)
	require.NoError(t, err)
	return u
}

func newTestMerger(t *testing.T, path string, sources ...*ring.SlotRing[payload.RawOrderUpdate]) (*StreamMerger, *control.StopToken) {
	t.Helper()
	stop := control.NewStopToken()
	m, err := Open(path, sources, stop)
	require.NoError(t, err)
	return m, stop
}

// Scenario A — straight merge, no duplicates, two streams, in-order.
func TestScenarioA_StraightMerge(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0, s1 := newTestRing(), newTestRing()
	push(t, s0, `{"u":1,"E":1000}`)
	push(t, s0, `{"u":3,"E":1002}`)
	push(t, s1, `{"u":2,"E":1001}`)
	push(t, s1, `{"u":4,"E":1003}`)

	m, stop := newTestMerger(t, out, s0, s1)
	go m.Run()

	time.Sleep(30 * time.Millisecond)
	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 4)
	for i, line := range lines {
		require.Equal(t, uint64(i+1), extractU(t, line))
	}
}

// Scenario B — dedup drop.
func TestScenarioB_DedupDrop(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0, s1 := newTestRing(), newTestRing()
	push(t, s0, `{"u":10,"E":2000}`)
	push(t, s1, `{"u":10,"E":2000}`)
	push(t, s1, `{"u":11,"E":2001}`)

	m, stop := newTestMerger(t, out, s0, s1)
	go m.Run()

	time.Sleep(30 * time.Millisecond)
	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 2)
	require.Equal(t, uint64(10), extractU(t, lines[0]))
	require.Equal(t, uint64(11), extractU(t, lines[1]))
}

// Scenario C — late duplicate after emission.
func TestScenarioC_LateDuplicateAfterEmission(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0, s1 := newTestRing(), newTestRing()
	push(t, s0, `{"u":5,"E":3000}`)

	m, stop := newTestMerger(t, out, s0, s1)
	go m.Run()

	// Let the first u=5 clear the hold-back and get written.
	time.Sleep(30 * time.Millisecond)
	push(t, s1, `{"u":5,"E":3000}`)
	time.Sleep(10 * time.Millisecond)

	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	require.Equal(t, uint64(5), extractU(t, lines[0]))
}

// Scenario D — out-of-order within hold-back.
func TestScenarioD_OutOfOrderWithinHoldBack(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0, s1 := newTestRing(), newTestRing()
	push(t, s0, `{"u":7,"E":100}`)

	m, stop := newTestMerger(t, out, s0, s1)
	go m.Run()

	time.Sleep(5 * time.Millisecond)
	push(t, s1, `{"u":6,"E":99}`)

	time.Sleep(30 * time.Millisecond)
	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 2)
	require.Equal(t, uint64(6), extractU(t, lines[0]))
	require.Equal(t, uint64(7), extractU(t, lines[1]))
}

// Scenario E — out-of-order past hold-back: the late arrival is dropped.
func TestScenarioE_OutOfOrderPastHoldBack(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0, s1 := newTestRing(), newTestRing()
	push(t, s0, `{"u":7,"E":100}`)

	m, stop := newTestMerger(t, out, s0, s1)
	go m.Run()

	time.Sleep(25 * time.Millisecond) // past the 20ms hold-back: 7 is emitted
	push(t, s1, `{"u":6,"E":99}`)
	time.Sleep(10 * time.Millisecond)

	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	require.Equal(t, uint64(7), extractU(t, lines[0]))
}

func TestDrainAllIgnoresParseFailures(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0 := newTestRing()
	push(t, s0, `{"s":"no u field"}`)
	push(t, s0, `{"u":1,"E":1}`)

	m, stop := newTestMerger(t, out, s0)
	go m.Run()

	time.Sleep(30 * time.Millisecond)
	stop.Stop()
	<-m.done

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	require.Equal(t, uint64(1), extractU(t, lines[0]))
}

func TestRingsAreConservedAfterQuiescence(t *testing.T) {
	dir := t.TempDir()
	out := dir + "/merged.ndjson"

	s0 := newTestRing()
	for i := uint64(1); i <= 5; i++ {
		push(t, s0, `{"u":`+strconv.FormatUint(i, 10)+`,"E":1}`)
	}

	m, stop := newTestMerger(t, out, s0)
	go m.Run()

	time.Sleep(30 * time.Millisecond)
	stop.Stop()
	<-m.done

	require.Equal(t, s0.Capacity(), s0.FreeSize()+s0.ReadySize())
}
