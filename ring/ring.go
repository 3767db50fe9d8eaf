// ════════════════════════════════════════════════════════════════════════════════════════════════
// Lock-Free SPSC Slot-Recycling Ring
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Project: wsingest
// Component: Per-connection object-recycling ring buffer
//
// Description:
//   Fixed-capacity single-producer/single-consumer object recycler. Backs every
//   per-session payload and latency channel. Holds C slots of T; producers
//   acquire an empty slot, fill it in place, and publish it; consumers consume
//   a filled slot and release it back once drained. No allocation occurs once
//   the ring is constructed.
//
// Design lineage:
//   Generalizes the fixed-24-byte, sequence-numbered SPSC ring (single "ready"
//   queue, implicit reuse via sequence wraparound) into two independent
//   sequence-numbered index queues — "free" and "ready" — sharing one backing
//   slot array. This is required because payload slots are variable-size byte
//   buffers that must be mutated and reused in place rather than copied by
//   value, unlike the original's fixed-width struct copy.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package ring

import "sync/atomic"

// idxSlot holds one recycled slot index and its availability sequence number.
//
//go:notinheap
//go:align 64
type idxSlot struct {
	val uint32
	seq uint64
}

// idxQueue is a lock-free SPSC queue of slot indices. head and tail sit on
// separate cache lines so producer and consumer never false-share.
//
//go:notinheap
//go:align 64
type idxQueue struct {
	_    [64]byte
	head uint64 // consumer cursor

	_    [56]byte
	tail uint64 // producer cursor

	_ [56]byte

	mask uint64
	step uint64
	buf  []idxSlot
}

func (q *idxQueue) init(size int) {
	q.mask = uint64(size - 1)
	q.step = uint64(size)
	q.buf = make([]idxSlot, size)
	for i := range q.buf {
		q.buf[i].seq = uint64(i)
	}
}

//go:nosplit
//go:inline
func (q *idxQueue) push(v uint32) bool {
	t := q.tail
	s := &q.buf[t&q.mask]
	if atomic.LoadUint64(&s.seq) != t {
		return false
	}
	s.val = v
	atomic.StoreUint64(&s.seq, t+1)
	q.tail = t + 1
	return true
}

//go:nosplit
//go:inline
func (q *idxQueue) pop() (uint32, bool) {
	h := q.head
	s := &q.buf[h&q.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		return 0, false
	}
	v := s.val
	atomic.StoreUint64(&s.seq, h+q.step)
	q.head = h + 1
	return v, true
}

// size returns an approximate occupancy count; only safe as a diagnostic,
// never as a synchronization signal (ring_size invariant, §8 property 3).
func (q *idxQueue) size() int {
	t := atomic.LoadUint64(&q.tail)
	h := atomic.LoadUint64(&q.head)
	return int(t - h)
}

// SlotRing is a fixed-capacity C object recycler for T. Exactly C slots
// exist; at any quiescent moment each slot is in free xor ready xor held by
// exactly one of producer/consumer (§3 invariant).
type SlotRing[T any] struct {
	slots []T
	free  idxQueue
	ready idxQueue
}

// New constructs a SlotRing with the given power-of-two capacity, preloading
// every slot into the free queue.
func New[T any](capacity int) *SlotRing[T] {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be >0 and a power of two")
	}
	r := &SlotRing[T]{slots: make([]T, capacity)}
	r.free.init(capacity)
	r.ready.init(capacity)
	for i := 0; i < capacity; i++ {
		r.free.push(uint32(i))
	}
	return r
}

// Acquire moves an empty slot out of free. Producer side. False iff free is
// empty — the consumer is lagging (§4.1 Failure).
func (r *SlotRing[T]) Acquire() (slot *T, handle uint32, ok bool) {
	idx, ok := r.free.pop()
	if !ok {
		return nil, 0, false
	}
	return &r.slots[idx], idx, true
}

// Publish moves a filled slot into ready. Producer side, symmetric to
// Acquire on the ready queue.
func (r *SlotRing[T]) Publish(handle uint32) bool {
	return r.ready.push(handle)
}

// Consume moves the next ready slot out. Consumer side, symmetric to
// Acquire on ready.
func (r *SlotRing[T]) Consume() (slot *T, handle uint32, ok bool) {
	idx, ok := r.ready.pop()
	if !ok {
		return nil, 0, false
	}
	return &r.slots[idx], idx, true
}

// Release returns a drained slot to free. Consumer side, symmetric to
// Publish on free. Must be called exactly once per Consume — whether the
// slot was emitted or dedup-dropped (§3 invariant).
func (r *SlotRing[T]) Release(handle uint32) bool {
	return r.free.push(handle)
}

// ReadySize and FreeSize are approximate read-only occupancy counts.
func (r *SlotRing[T]) ReadySize() int { return r.ready.size() }
func (r *SlotRing[T]) FreeSize() int  { return r.free.size() }

// Capacity returns C, the fixed slot count.
func (r *SlotRing[T]) Capacity() int { return len(r.slots) }

// AcquireSpin retries Acquire up to maxSpins times with a CPU relaxation
// hint between attempts before giving up. Used on the producer side when
// the free queue is momentarily exhausted and the caller must not drop the
// frame it is about to read (§4.1 Failure, §4.3 read loop: "yield and
// retry; do not lose the frame silently").
func (r *SlotRing[T]) AcquireSpin(maxSpins int) (slot *T, handle uint32, ok bool) {
	for i := 0; i < maxSpins; i++ {
		if slot, handle, ok = r.Acquire(); ok {
			return slot, handle, true
		}
		cpuRelax()
	}
	return nil, 0, false
}
