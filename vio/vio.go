// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: vio.go — vectored write with EINTR/EAGAIN retry (§4.5, §4.6, §7)
//
// Purpose:
//   - Shared by the merger and file logger, the two sinks that batch
//     multiple buffers into one writev(2) call: retry on EINTR, yield and
//     retry on EAGAIN, advance the iovec cursor across partial writes,
//     and surface any other error to the caller for its own abandon policy.
// ─────────────────────────────────────────────────────────────────────────────

package vio

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// WriteAll issues fd's buffers via unix.Writev until every byte is written
// or a non-retriable error occurs.
func WriteAll(fd int, iovs [][]byte) error {
	for len(iovs) > 0 {
		n, err := unix.Writev(fd, iovs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				runtime.Gosched()
				continue
			}
			return err
		}
		iovs = advance(iovs, int(n))
	}
	return nil
}

// advance drops the first n written bytes from iovs, trimming a
// partially-written buffer in place.
func advance(iovs [][]byte, n int) [][]byte {
	for n > 0 && len(iovs) > 0 {
		if n < len(iovs[0]) {
			iovs[0] = iovs[0][n:]
			return iovs
		}
		n -= len(iovs[0])
		iovs = iovs[1:]
	}
	return iovs
}
