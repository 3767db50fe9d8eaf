// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: merger.go — StreamMerger: N-ring ingest, hold-back reorder, dedup (§4.5)
//
// Purpose:
//   - Sole consumer of every payload ring, sole producer of the merged
//     NDJSON file. Ingests everything currently available, holds each
//     entry for constants.HoldBackWindow before it is eligible to emit,
//     drops duplicates and late arrivals by comparing against
//     lastEmittedU, and batches emission into one vectored write.
// ─────────────────────────────────────────────────────────────────────────────

package merger

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tidwall/btree"

	"github.com/codewanderer/wsingest/constants"
	"github.com/codewanderer/wsingest/control"
	"github.com/codewanderer/wsingest/logging"
	"github.com/codewanderer/wsingest/metrics"
	"github.com/codewanderer/wsingest/payload"
	"github.com/codewanderer/wsingest/ring"
	"github.com/codewanderer/wsingest/vio"
)

// State names the merger's position in the §4.5 state machine.
type State int32

const (
	Running State = iota
	StopRequested
	Draining
	Closed
)

// BufEntry is the merger's private record of one not-yet-emitted payload.
// Ownership of the underlying ring slot lives here for the entry's
// lifetime: the slot is neither free nor ready, it is held by the merger.
type BufEntry struct {
	U         uint64
	FirstSeen time.Time
	Src       int
	Handle    uint32
	Slot      *payload.RawOrderUpdate
}

// StreamMerger merges N payload rings into one strictly u-ordered NDJSON
// file.
type StreamMerger struct {
	sources []*ring.SlotRing[payload.RawOrderUpdate]
	heap    *btree.Map[uint64, *BufEntry]

	lastEmittedU uint64
	out          *os.File
	outFd        int

	stop  *control.StopToken
	state atomic.Int32
	done  chan struct{}
}

// Open creates (truncating) the merged output file and constructs a
// StreamMerger over sources. A failure to open the output is FatalStartup
// (§7): the caller must propagate a non-zero exit before starting any
// session.
func Open(path string, sources []*ring.SlotRing[payload.RawOrderUpdate], stop *control.StopToken) (*StreamMerger, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("merger: output not open: %w", err)
	}
	m := &StreamMerger{
		sources: sources,
		heap:    btree.NewMap[uint64, *BufEntry](32),
		out:     f,
		outFd:   int(f.Fd()),
		stop:    stop,
		done:    make(chan struct{}),
	}
	m.state.Store(int32(Running))
	return m, nil
}

// State returns the merger's current lifecycle state.
func (m *StreamMerger) State() State {
	return State(m.state.Load())
}

// Run drives the ingest/flush loop until stop is requested and every ring
// is empty, then drains the heap without hold-back and closes the output.
// Intended to run on its own dedicated worker thread.
func (m *StreamMerger) Run() {
	for {
		progressed := m.ingestAll()
		progressed = m.flush(true) || progressed

		if m.stop.Stopped() {
			m.state.Store(int32(StopRequested))
			if m.allRingsEmpty() {
				break
			}
		}
		if !progressed {
			runtime.Gosched()
		}
	}

	m.state.Store(int32(Draining))
	m.drainAll()
	m.state.Store(int32(Closed))
	m.out.Close()
	close(m.done)
}

// Join requests shutdown and blocks until Run has finished draining and
// closed the output file.
func (m *StreamMerger) Join() {
	m.stop.Stop()
	<-m.done
}

// ingestAll drains every ring of everything currently available, parsing
// each payload's u and pushing it into the heap or dropping it per §4.5.
// Returns true if any payload was consumed.
func (m *StreamMerger) ingestAll() bool {
	any := false
	for src, r := range m.sources {
		for {
			slot, handle, ok := r.Consume()
			if !ok {
				break
			}
			any = true
			m.ingestOne(src, r, slot, handle)
		}
	}
	return any
}

func (m *StreamMerger) ingestOne(src int, r *ring.SlotRing[payload.RawOrderUpdate], slot *payload.RawOrderUpdate, handle uint32) {
	u, ok := payload.ExtractU(slot.Bytes())
	if !ok {
		metrics.ParseErrors.Inc()
		r.Release(handle)
		return
	}
	if u <= atomic.LoadUint64(&m.lastEmittedU) {
		metrics.DedupDrops.Inc()
		r.Release(handle)
		return
	}
	if _, exists := m.heap.Get(u); exists {
		// Tie-break on equal u: first-seen wins.
		metrics.DedupDrops.Inc()
		r.Release(handle)
		return
	}
	m.heap.Set(u, &BufEntry{
		U:         u,
		FirstSeen: time.Now(),
		Src:       src,
		Handle:    handle,
		Slot:      slot,
	})
}

// peekMin returns the entry with the smallest u currently in the heap.
func (m *StreamMerger) peekMin() (*BufEntry, bool) {
	var min *BufEntry
	m.heap.Scan(func(_ uint64, v *BufEntry) bool {
		min = v
		return false
	})
	return min, min != nil
}

// flush performs one flush pass (§4.5 step 2/3). When holdBack is false
// (draining), entries are emitted regardless of first-seen age. Returns
// true if any entry was written or dropped.
func (m *StreamMerger) flush(holdBack bool) bool {
	var batch []*BufEntry
	progressed := false

	for len(batch) < constants.MergeBatchSize {
		entry, ok := m.peekMin()
		if !ok {
			break
		}
		if entry.U <= atomic.LoadUint64(&m.lastEmittedU) {
			m.heap.Delete(entry.U)
			m.sources[entry.Src].Release(entry.Handle)
			metrics.DedupDrops.Inc()
			progressed = true
			continue
		}
		if holdBack && time.Since(entry.FirstSeen) < constants.HoldBackWindow {
			break
		}
		m.heap.Delete(entry.U)
		batch = append(batch, entry)
	}

	if len(batch) == 0 {
		return progressed
	}

	metrics.MergeBatchSize.Observe(float64(len(batch)))
	if err := m.writeBatch(batch); err != nil {
		logging.Err("MERGE_WRITE", err)
		// Batch abandoned: release slots without advancing lastEmittedU.
		for _, e := range batch {
			m.sources[e.Src].Release(e.Handle)
		}
		return true
	}

	max := batch[len(batch)-1].U
	atomic.StoreUint64(&m.lastEmittedU, max)
	for _, e := range batch {
		m.sources[e.Src].Release(e.Handle)
	}
	return true
}

// writeBatch performs one vectored write of the batch's payload bytes and
// trailing newlines.
func (m *StreamMerger) writeBatch(batch []*BufEntry) error {
	iovs := make([][]byte, 0, constants.MergeIovecSlots)
	for _, e := range batch {
		iovs = append(iovs, e.Slot.Bytes(), newline)
	}
	return vio.WriteAll(m.outFd, iovs)
}

var newline = []byte{'\n'}

// allRingsEmpty reports whether every source ring's ready queue is empty.
func (m *StreamMerger) allRingsEmpty() bool {
	for _, r := range m.sources {
		if r.ReadySize() != 0 {
			return false
		}
	}
	return true
}

// drainAll runs flush without hold-back until the heap is empty (§4.5
// Shutdown, §9 "strict u-monotonic output in all cases, including drain").
func (m *StreamMerger) drainAll() {
	for {
		m.flush(false)
		if _, ok := m.peekMin(); !ok {
			return
		}
	}
}

