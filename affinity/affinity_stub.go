// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: affinity_stub.go — CPU affinity no-op for non-Linux platforms
// ─────────────────────────────────────────────────────────────────────────────

//go:build !linux

package affinity

import "runtime"

// Pin is a no-op on platforms without sched_setaffinity. Keeps the API
// surface identical so callers never need a build tag of their own.
func Pin(cpu int) error {
	return nil
}

// AllowedCPUs reports every logical CPU as allowed, since there is no
// affinity mask to consult.
func AllowedCPUs() ([]int, error) {
	n := runtime.NumCPU()
	allowed := make([]int, n)
	for i := range allowed {
		allowed[i] = i
	}
	return allowed, nil
}
