// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: metrics.go — optional, non-blocking counters and histograms
//
// Purpose:
//   - §7 says ParseError, RingFull and dedup drops are "counted only in
//     optional metrics" — never on the hot path in a way that can block or
//     fail it. Every collector here is updated with a plain Inc/Observe
//     call at the point of use.
// ─────────────────────────────────────────────────────────────────────────────

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wsingest_parse_errors_total",
		Help: "Payloads dropped for missing or unparseable u.",
	})

	PayloadRingDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wsingest_payload_ring_drops_total",
		Help: "Payload ring acquire failures observed by producers (should stay 0; policy is retry, not drop).",
	})

	LatencyRingDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wsingest_latency_ring_drops_total",
		Help: "Latency events dropped because their ring was full.",
	})

	BackoffAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wsingest_backoff_attempts_total",
		Help: "Reconnect backoff sleeps entered by sessions.",
	})

	DedupDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wsingest_dedup_drops_total",
		Help: "Payloads dropped by the merger as duplicates or late arrivals.",
	})

	MergeBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wsingest_merge_batch_size",
		Help:    "Number of entries flushed per merger batch.",
		Buckets: prometheus.LinearBuckets(1, 8, 8),
	})
)

// Register adds every collector to the default registry. Safe to call once
// at startup; main calls it before constructing the runner.
func Register() {
	prometheus.MustRegister(
		ParseErrors,
		PayloadRingDrops,
		LatencyRingDrops,
		BackoffAttempts,
		DedupDrops,
		MergeBatchSize,
	)
}
