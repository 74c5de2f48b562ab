/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics exposes Prometheus instrumentation for health card verification.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Terminology lookup results.
const (
	LookupLocal  = "local"
	LookupRemote = "remote"
	LookupMiss   = "miss"
)

// Metrics provides observability for verification and terminology lookups.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Verification verdicts by outcome
	Verifications *prometheus.CounterVec

	// Key set fetch latency by result
	KeySetLatency *prometheus.HistogramVec

	// Terminology lookups by result
	TerminologyLookups *prometheus.CounterVec

	// Remote terminology lookup latency
	TerminologyLatency prometheus.Histogram

	// Verdict cache hits and misses
	VerdictCache *prometheus.CounterVec
}

// New creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shc_verifications_total",
			Help: "Total signature verifications by verdict",
		}, []string{"verdict"}), // verdict: "valid", "invalid"

		KeySetLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shc_keyset_fetch_duration_seconds",
			Help:    "Duration of issuer key set fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"result"}), // result: "ok", "error"

		TerminologyLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shc_terminology_lookups_total",
			Help: "Total terminology lookups by result",
		}, []string{"result"}),

		TerminologyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shc_terminology_remote_duration_seconds",
			Help:    "Duration of remote terminology lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		VerdictCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shc_verdict_cache_requests_total",
			Help: "Verdict cache requests by result",
		}, []string{"result"}), // result: "hit", "miss"
	}
}

// IncrementVerification records a verification verdict.
func (m *Metrics) IncrementVerification(verdict string) {
	if m != nil {
		m.Verifications.WithLabelValues(verdict).Inc()
	}
}

// ObserveKeySetFetch records the duration of a key set fetch.
func (m *Metrics) ObserveKeySetFetch(d time.Duration, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.KeySetLatency.WithLabelValues(result).Observe(d.Seconds())
}

// IncrementLookup records a terminology lookup result.
func (m *Metrics) IncrementLookup(result string) {
	if m != nil {
		m.TerminologyLookups.WithLabelValues(result).Inc()
	}
}

// ObserveRemoteLookup records the duration of a remote terminology lookup.
func (m *Metrics) ObserveRemoteLookup(d time.Duration) {
	if m != nil {
		m.TerminologyLatency.Observe(d.Seconds())
	}
}

// IncrementVerdictCache records a verdict cache hit or miss.
func (m *Metrics) IncrementVerdictCache(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.VerdictCache.WithLabelValues("hit").Inc()
	} else {
		m.VerdictCache.WithLabelValues("miss").Inc()
	}
}
