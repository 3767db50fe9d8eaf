package utils

import "unsafe"

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used on hot-path field extraction where a temporary string view is needed
// without copying the underlying payload bytes.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// JSON Micro-Scanners — For Field Detection & Numeric Extraction
///////////////////////////////////////////////////////////////////////////////

// FindKey locates the byte offset just past the ':' following the first
// occurrence of `"key"` in b, skipping any whitespace. Returns -1 if the key
// is absent or malformed (non-space, non-digit garbage immediately after the
// colon is left to the caller — this only locates the value's start).
//
//go:nosplit
//go:inline
func FindKey(b []byte, key string) int {
	n := len(key)
	end := len(b) - n - 2 // room for `"key"`
	for i := 0; i <= end; i++ {
		if b[i] != '"' {
			continue
		}
		if string(b[i+1:i+1+n]) != key {
			continue
		}
		j := i + 1 + n
		if j >= len(b) || b[j] != '"' {
			continue
		}
		j++
		for j < len(b) && b[j] != ':' {
			if b[j] > ' ' {
				return -1
			}
			j++
		}
		if j >= len(b) {
			return -1
		}
		j++ // skip ':'
		for j < len(b) && b[j] == ' ' {
			j++
		}
		return j
	}
	return -1
}

// ScanUint64 parses an unsigned decimal integer starting at offset i in b.
// Returns the parsed value and ok=false if no digit is present at i.
//
//go:nosplit
//go:inline
func ScanUint64(b []byte, i int) (uint64, bool) {
	if i < 0 || i >= len(b) || b[i] < '0' || b[i] > '9' {
		return 0, false
	}
	var v uint64
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		v = v*10 + uint64(b[i]-'0')
		i++
	}
	return v, true
}

// ScanInt64 parses an optionally-signed decimal integer starting at offset i.
//
//go:nosplit
//go:inline
func ScanInt64(b []byte, i int) (int64, bool) {
	if i < 0 || i >= len(b) {
		return 0, false
	}
	neg := false
	if b[i] == '-' {
		neg = true
		i++
	}
	u, ok := ScanUint64(b, i)
	if !ok {
		return 0, false
	}
	if neg {
		return -int64(u), true
	}
	return int64(u), true
}
