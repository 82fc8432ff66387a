package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "rentledger_"

	ResultSuccess  = "success"
	ResultReplayed = "replayed"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultConflict = "conflict"
)

var (
	registerOnce sync.Once

	allocationsTotal  *prometheus.CounterVec
	allocationLatency prometheus.Histogram

	advancePostingsTotal    *prometheus.CounterVec
	settlementFallbackTotal *prometheus.CounterVec
	ledgerEntriesTotal      *prometheus.CounterVec
)

// Init registers the allocation engine metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		allocationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "allocations_total",
				Help: "Total payment allocations by result",
			},
			[]string{"result"},
		)
		allocationLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "allocation_duration_seconds",
				Help:    "Wall time of a full allocate call including ledger writes",
				Buckets: prometheus.DefBuckets,
			},
		)
		advancePostingsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "advance_postings_total",
				Help: "Advance (deferred) postings by charge type",
			},
			[]string{"charge_type"},
		)
		settlementFallbackTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "settlement_fallback_total",
				Help: "Settlement tag resolutions during replay by path",
			},
			[]string{"path"},
		)
		ledgerEntriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_entries_total",
				Help: "Ledger entries appended by source",
			},
			[]string{"source"},
		)

		prometheus.MustRegister(
			allocationsTotal,
			allocationLatency,
			advancePostingsTotal,
			settlementFallbackTotal,
			ledgerEntriesTotal,
		)
	})
}

// AllocationObserved records one allocate call outcome and its duration.
func AllocationObserved(result string, seconds float64) {
	if allocationsTotal == nil {
		return
	}
	allocationsTotal.WithLabelValues(result).Inc()
	allocationLatency.Observe(seconds)
}

// AdvancePosted records one advance posting.
func AdvancePosted(chargeType string) {
	if advancePostingsTotal == nil {
		return
	}
	advancePostingsTotal.WithLabelValues(chargeType).Inc()
}

// FallbackFired records which path resolved a settlement's period tag.
func FallbackFired(path string) {
	if settlementFallbackTotal == nil {
		return
	}
	settlementFallbackTotal.WithLabelValues(path).Inc()
}

// EntryAppended records one appended ledger entry.
func EntryAppended(source string) {
	if ledgerEntriesTotal == nil {
		return
	}
	ledgerEntriesTotal.WithLabelValues(source).Inc()
}
