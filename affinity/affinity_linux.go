// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: affinity_linux.go — CPU pinning via sched_setaffinity(2) (§4.7)
// ─────────────────────────────────────────────────────────────────────────────

//go:build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pin binds the calling OS thread to a single CPU core. Callers that want
// per-goroutine pinning must first call runtime.LockOSThread.
func Pin(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("affinity: invalid cpu %d", cpu)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: SchedSetaffinity(%d): %w", cpu, err)
	}
	return nil
}

// AllowedCPUs returns the CPU indices the current thread is permitted to
// run on, per the process's inherited affinity mask.
func AllowedCPUs() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: SchedGetaffinity: %w", err)
	}
	n := set.Count()
	allowed := make([]int, 0, n)
	for cpu := 0; len(allowed) < n; cpu++ {
		if set.IsSet(cpu) {
			allowed = append(allowed, cpu)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("affinity: empty affinity mask")
	}
	return allowed, nil
}
