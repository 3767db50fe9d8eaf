// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: jiffies.go — least-busy-CPU selection via /proc/stat sampling
//
// Purpose:
//   - Two snapshots of per-CPU jiffy counters, JiffiesSampleInterval apart,
//     give a busy fraction per CPU: 1 - idleΔ/totalΔ. PickLeastBusyAllowedCPU
//     picks the minimum among the caller's allowed set (§4.7).
// ─────────────────────────────────────────────────────────────────────────────

package affinity

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codewanderer/wsingest/constants"
)

// cpuSample holds one /proc/stat snapshot for a single logical CPU: total
// jiffies across every field, and idle jiffies (field index 4, "idle")
// tracked separately so utilization can be computed from their deltas.
type cpuSample struct {
	total uint64
	idle  uint64
}

// sampleJiffies reads /proc/stat and returns total and idle jiffies per
// logical CPU index, keyed by the numeric suffix of "cpuN".
func sampleJiffies() (map[int]cpuSample, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, fmt.Errorf("affinity: open /proc/stat: %w", err)
	}
	defer f.Close()

	out := make(map[int]cpuSample)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") || strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(fields[0], "cpu"))
		if err != nil {
			continue
		}
		var sample cpuSample
		for i, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				break
			}
			sample.total += v
			if i == 3 { // user nice system [idle] iowait ...
				sample.idle = v
			}
		}
		out[idx] = sample
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("affinity: scan /proc/stat: %w", err)
	}
	return out, nil
}

// PickLeastBusyAllowedCPU samples /proc/stat twice, JiffiesSampleInterval
// apart, and returns the allowed CPU with the smallest busy fraction
// 1 - idleΔ/totalΔ (§4.7). Falls back to allowed[0] if sampling fails (e.g.
// /proc unavailable) or no allowed CPU has a usable, non-zero totalΔ.
func PickLeastBusyAllowedCPU(allowed []int) (int, error) {
	if len(allowed) == 0 {
		return 0, fmt.Errorf("affinity: empty allowed set")
	}
	before, err := sampleJiffies()
	if err != nil {
		return allowed[0], nil
	}
	time.Sleep(constants.JiffiesSampleInterval)
	after, err := sampleJiffies()
	if err != nil {
		return allowed[0], nil
	}

	return chooseLeastBusy(before, after, allowed), nil
}

// chooseLeastBusy picks the allowed CPU with the smallest busy fraction
// 1 - idleΔ/totalΔ between two samples. Falls back to allowed[0] if no CPU
// has usable deltas in both samples. Split out from PickLeastBusyAllowedCPU
// so the utilization math is testable without touching /proc/stat.
func chooseLeastBusy(before, after map[int]cpuSample, allowed []int) int {
	best := allowed[0]
	bestBusy := 2.0 // any real fraction (0..1) beats this sentinel
	found := false
	for _, cpu := range allowed {
		b, ok1 := before[cpu]
		a, ok2 := after[cpu]
		if !ok1 || !ok2 || a.total < b.total || a.idle < b.idle {
			continue
		}
		totalDelta := a.total - b.total
		if totalDelta == 0 {
			continue
		}
		idleDelta := a.idle - b.idle
		busy := 1 - float64(idleDelta)/float64(totalDelta)
		if !found || busy < bestBusy {
			bestBusy = busy
			best = cpu
			found = true
		}
	}
	return best
}
