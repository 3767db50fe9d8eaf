// ════════════════════════════════════════════════════════════════════════════════════════════════
// SlotRing correctness suite
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Covers the §8 testable properties that apply at the ring level: ring
// conservation (property 3) and slot round-trip (property 4).
// ════════════════════════════════════════════════════════════════════════════════════════════════

package ring

import (
	"sync"
	"testing"
)

type payload struct {
	n int
}

func TestNewRejectsBadCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non power-of-two capacity")
		}
	}()
	New[payload](3)
}

func TestAcquirePublishConsumeRelease(t *testing.T) {
	r := New[payload](4)

	slot, h, ok := r.Acquire()
	if !ok {
		t.Fatal("acquire should succeed on fresh ring")
	}
	slot.n = 42
	if !r.Publish(h) {
		t.Fatal("publish should succeed")
	}

	got, h2, ok := r.Consume()
	if !ok || got.n != 42 {
		t.Fatalf("consume mismatch: ok=%v val=%v", ok, got)
	}
	if !r.Release(h2) {
		t.Fatal("release should succeed")
	}
}

func TestFreeExhaustion(t *testing.T) {
	r := New[payload](2)
	if _, _, ok := r.Acquire(); !ok {
		t.Fatal("first acquire should succeed")
	}
	if _, _, ok := r.Acquire(); !ok {
		t.Fatal("second acquire should succeed")
	}
	if _, _, ok := r.Acquire(); ok {
		t.Fatal("third acquire should fail: free exhausted")
	}
}

func TestRingConservation(t *testing.T) {
	const capacity = 8
	r := New[payload](capacity)

	for i := 0; i < 3; i++ {
		slot, h, ok := r.Acquire()
		if !ok {
			t.Fatal("acquire failed")
		}
		slot.n = i
		r.Publish(h)
	}

	if got := r.FreeSize() + r.ReadySize(); got != capacity {
		t.Fatalf("ring conservation violated: free+ready=%d want %d", got, capacity)
	}

	for {
		_, h, ok := r.Consume()
		if !ok {
			break
		}
		r.Release(h)
	}

	if got := r.FreeSize() + r.ReadySize(); got != capacity {
		t.Fatalf("ring conservation violated after drain: free+ready=%d want %d", got, capacity)
	}
}

func TestSPSCConcurrentRoundTrip(t *testing.T) {
	const capacity = 1 << 10
	const n = 50_000
	r := New[payload](capacity)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			slot, h, ok := r.AcquireSpin(1 << 20)
			if !ok {
				t.Errorf("producer starved at i=%d", i)
				return
			}
			slot.n = i
			for !r.Publish(h) {
				cpuRelax()
			}
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			var slot *payload
			var h uint32
			var ok bool
			for {
				slot, h, ok = r.Consume()
				if ok {
					break
				}
				cpuRelax()
			}
			sum += slot.n
			r.Release(h)
		}
	}()

	wg.Wait()
	want := n * (n - 1) / 2
	if sum != want {
		t.Fatalf("lost or corrupted messages: sum=%d want=%d", sum, want)
	}
}

func TestAcquireSpinGivesUp(t *testing.T) {
	r := New[payload](1)
	if _, _, ok := r.Acquire(); !ok {
		t.Fatal("setup acquire failed")
	}
	if _, _, ok := r.AcquireSpin(8); ok {
		t.Fatal("AcquireSpin should give up when free stays empty")
	}
}
