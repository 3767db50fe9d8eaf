// ═══════════════════════════════════════════════════════════════════════════════════════════════
// Reactor — cooperative host for async session tasks (§4.2)
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Spawns N worker goroutines, each locked to its own OS thread and
// optionally pinned to a CPU. Registered tasks run as ordinary goroutines
// scheduled by the Go runtime on any thread: Go's netpoller parks them during
// blocking socket I/O instead of blocking a thread. Tasks do not run on the
// locked, pinned worker threads; those threads only hold the reactor open.
// A keep-alive guard holds workers open until Stop drops it.
// ═══════════════════════════════════════════════════════════════════════════════════════════════

package reactor

import (
	"runtime"
	"sync"

	"github.com/codewanderer/wsingest/affinity"
	"github.com/codewanderer/wsingest/logging"
)

// Reactor tracks cooperative async session tasks and keeps a pool of pinned
// worker threads alive until Stop. The tasks themselves run as plain
// goroutines, not on the pinned workers.
type Reactor struct {
	workers int
	pin     bool

	guard   sync.WaitGroup // keep-alive: held until Stop
	done    chan struct{}
	tasks   sync.WaitGroup // registered session tasks, awaited on Stop
	started bool
	mu      sync.Mutex
}

// New constructs a reactor with the given worker count (default 1 for
// minimum context switching) and whether workers should be CPU-pinned.
func New(workers int, pin bool) *Reactor {
	if workers < 1 {
		workers = 1
	}
	return &Reactor{
		workers: workers,
		pin:     pin,
		done:    make(chan struct{}),
	}
}

// Start spawns the worker pool. Each worker holds the reactor open via the
// keep-alive guard until Stop is called.
func (r *Reactor) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.guard.Add(r.workers)
	for i := 0; i < r.workers; i++ {
		go r.hostWorker(i)
	}
}

func (r *Reactor) hostWorker(id int) {
	defer r.guard.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if r.pin {
		if allowed, err := affinity.AllowedCPUs(); err == nil {
			if cpu, err := affinity.Assign(allowed); err == nil {
				defer affinity.Release(cpu)
				if err := affinity.Pin(cpu); err != nil {
					logging.Err("REACTOR", err)
				}
			}
		}
	}

	<-r.done
}

// Register runs task as a goroutine hosted by the reactor's lifecycle:
// Stop waits for every registered task to return before releasing workers.
func (r *Reactor) Register(task func()) {
	r.tasks.Add(1)
	go func() {
		defer r.tasks.Done()
		task()
	}()
}

// Stop signals workers to exit and waits for all registered tasks and
// workers to finish.
func (r *Reactor) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.tasks.Wait()
	close(r.done)
	r.guard.Wait()
}
