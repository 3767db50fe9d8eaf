// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: payload.go — raw NDJSON payload buffer and field extraction
//
// Purpose:
//   - RawOrderUpdate is the recycled slot type held by every payload
//     SlotRing (§3). It is a contiguous byte buffer with clearable capacity,
//     reused in place across reads — no semantic interpretation beyond "raw
//     bytes as received".
//   - ExtractU and ExtractEventTimestampMs perform the small hand-rolled
//     scans §4.5/§9 require in place of a general JSON decode: no in-stream
//     JSON validation beyond locating these two fields.
// ─────────────────────────────────────────────────────────────────────────────

package payload

import "github.com/codewanderer/wsingest/utils"

// RawOrderUpdate holds one raw NDJSON message as received from the wire.
// Its backing array grows on demand and is retained across reuses once
// warmed up, so steady-state operation allocates nothing (§9 "Object
// recycling over allocator").
type RawOrderUpdate struct {
	Buf []byte
}

// Clear truncates the buffer to zero length without releasing capacity.
// Sessions call this before reading a new frame into a reused slot.
func (r *RawOrderUpdate) Clear() {
	r.Buf = r.Buf[:0]
}

// Append grows the buffer to hold b, reusing existing capacity when
// possible.
func (r *RawOrderUpdate) Append(b []byte) {
	r.Buf = append(r.Buf, b...)
}

// Bytes returns the current contents.
func (r *RawOrderUpdate) Bytes() []byte {
	return r.Buf
}

// ExtractU locates the `"u"` field and returns its unsigned decimal value.
// Payloads without a parseable `u` return ok=false and must be dropped with
// the slot released immediately (§4.5 Ordering and dedup, §7 ParseError).
func ExtractU(b []byte) (u uint64, ok bool) {
	i := utils.FindKey(b, "u")
	if i < 0 {
		return 0, false
	}
	return utils.ScanUint64(b, i)
}

// ExtractEventTimestampMs returns the integer value of the payload field
// "E", or 0 if absent (§3 LatencyEvent).
func ExtractEventTimestampMs(b []byte) int64 {
	i := utils.FindKey(b, "E")
	if i < 0 {
		return 0
	}
	v, ok := utils.ScanInt64(b, i)
	if !ok {
		return 0
	}
	return v
}
