// Package monitor keeps per-process planning counters and a bounded ring
// buffer of recent request traces.
package monitor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/transitlabs/wayplan/internal/core/domain"
	"github.com/transitlabs/wayplan/internal/pkg/metrics"
)

// DefaultRingSize bounds the recent-trace buffer.
const DefaultRingSize = 500

// PhaseTimings records how long each planning phase took, in milliseconds.
type PhaseTimings struct {
	GeocodeMs  int64 `json:"geocodeMs"`
	PairwiseMs int64 `json:"pairwiseMs"`
	PlanningMs int64 `json:"planningMs"`
	BuildMs    int64 `json:"buildMs"`
}

// Trace is one request's record in the ring buffer.
type Trace struct {
	SessionID    string       `json:"sessionId,omitempty"`
	StartedAt    time.Time    `json:"startedAt"`
	DurationMs   int64        `json:"durationMs"`
	Phases       PhaseTimings `json:"phases"`
	FallbackUsed bool         `json:"fallbackUsed"`
	ErrKind      string       `json:"errKind,omitempty"`
	Err          string       `json:"err,omitempty"`
	Warnings     int          `json:"warnings,omitempty"`
}

// StatsSnapshot is the read-only counters view.
type StatsSnapshot struct {
	Requests      int64            `json:"requests"`
	Successes     int64            `json:"successes"`
	Fallbacks     int64            `json:"fallbacks"`
	Retries       int64            `json:"retries"`
	Failures      map[string]int64 `json:"failuresByKind"`
	ProviderCalls map[string]int64 `json:"providerCallsByEndpoint"`
	CacheHits     map[string]int64 `json:"cacheHitsByOperation"`
	CacheMisses   map[string]int64 `json:"cacheMissesByOperation"`
}

// Report is the aggregated summary with operational recommendations.
type Report struct {
	Stats           StatsSnapshot `json:"stats"`
	SuccessRate     float64       `json:"successRate"`
	FallbackRate    float64       `json:"fallbackRate"`
	CacheHitRate    float64       `json:"cacheHitRate"`
	Recommendations []string      `json:"recommendations"`
}

// Monitor is the process-wide metrics handle. Construct one at wire-up and
// inject it; Reset exists for tests and the admin surface.
type Monitor struct {
	requests  atomic.Int64
	successes atomic.Int64
	fallbacks atomic.Int64
	retries   atomic.Int64

	mu            sync.Mutex
	failures      map[string]int64
	providerCalls map[string]int64
	cacheHits     map[string]int64
	cacheMisses   map[string]int64

	ring  []Trace
	next  int
	count int
}

// New creates a monitor with the given ring-buffer capacity (0 selects the
// default).
func New(ringSize int) *Monitor {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Monitor{
		failures:      make(map[string]int64),
		providerCalls: make(map[string]int64),
		cacheHits:     make(map[string]int64),
		cacheMisses:   make(map[string]int64),
		ring:          make([]Trace, ringSize),
	}
}

// RecordRequest files a finished request trace and bumps the outcome
// counters.
func (m *Monitor) RecordRequest(t Trace) {
	m.requests.Add(1)
	outcome := "success"
	switch {
	case t.ErrKind != "":
		outcome = "error"
		m.mu.Lock()
		m.failures[t.ErrKind]++
		m.mu.Unlock()
	case t.FallbackUsed:
		outcome = "fallback"
		m.fallbacks.Add(1)
	default:
		m.successes.Add(1)
	}
	metrics.PlanRequests.WithLabelValues(outcome).Inc()
	metrics.PlanPhaseDuration.WithLabelValues("geocode").Observe(float64(t.Phases.GeocodeMs) / 1000)
	metrics.PlanPhaseDuration.WithLabelValues("pairwise").Observe(float64(t.Phases.PairwiseMs) / 1000)
	metrics.PlanPhaseDuration.WithLabelValues("planning").Observe(float64(t.Phases.PlanningMs) / 1000)
	metrics.PlanPhaseDuration.WithLabelValues("build").Observe(float64(t.Phases.BuildMs) / 1000)

	m.mu.Lock()
	m.ring[m.next] = t
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	m.mu.Unlock()
}

// ProviderCall counts one outbound map-backend call.
func (m *Monitor) ProviderCall(endpoint string) {
	m.mu.Lock()
	m.providerCalls[endpoint]++
	m.mu.Unlock()
	metrics.ProviderCalls.WithLabelValues(endpoint).Inc()
}

// Retry counts one retried provider call.
func (m *Monitor) Retry() {
	m.retries.Add(1)
	metrics.ProviderRetries.Inc()
}

// CacheHit counts a cache hit for the given operation.
func (m *Monitor) CacheHit(op string) {
	m.mu.Lock()
	m.cacheHits[op]++
	m.mu.Unlock()
	metrics.CacheHits.WithLabelValues(op).Inc()
}

// CacheMiss counts a cache miss for the given operation.
func (m *Monitor) CacheMiss(op string) {
	m.mu.Lock()
	m.cacheMisses[op]++
	m.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(op).Inc()
}

// Stats returns a snapshot of all counters.
func (m *Monitor) Stats() StatsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StatsSnapshot{
		Requests:      m.requests.Load(),
		Successes:     m.successes.Load(),
		Fallbacks:     m.fallbacks.Load(),
		Retries:       m.retries.Load(),
		Failures:      copyMap(m.failures),
		ProviderCalls: copyMap(m.providerCalls),
		CacheHits:     copyMap(m.cacheHits),
		CacheMisses:   copyMap(m.cacheMisses),
	}
}

// RecentLogs returns up to limit traces, newest first. errorsOnly filters to
// failed requests.
func (m *Monitor) RecentLogs(limit int, errorsOnly bool) []Trace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.ring) {
		limit = 50
	}

	out := make([]Trace, 0, limit)
	for i := 0; i < m.count && len(out) < limit; i++ {
		idx := (m.next - 1 - i + len(m.ring)) % len(m.ring)
		t := m.ring[idx]
		if errorsOnly && t.ErrKind == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Report aggregates the counters and derives operational recommendations.
func (m *Monitor) Report() Report {
	st := m.Stats()
	r := Report{Stats: st}

	if st.Requests > 0 {
		r.SuccessRate = float64(st.Successes) / float64(st.Requests)
		r.FallbackRate = float64(st.Fallbacks) / float64(st.Requests)
	}
	var hits, misses int64
	for _, v := range st.CacheHits {
		hits += v
	}
	for _, v := range st.CacheMisses {
		misses += v
	}
	if hits+misses > 0 {
		r.CacheHitRate = float64(hits) / float64(hits+misses)
	}

	if st.Requests >= 10 {
		if r.FallbackRate > 0.2 {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("fallback rate is %.0f%%; check map backend credentials and quota", r.FallbackRate*100))
		}
		if hits+misses > 0 && r.CacheHitRate < 0.5 {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("cache hit rate is %.0f%%; consider raising cache TTLs or capacity", r.CacheHitRate*100))
		}
		if st.Retries > st.Requests {
			r.Recommendations = append(r.Recommendations,
				"upstream throttling is frequent; lower the per-second request rate")
		}
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = []string{"no action needed"}
	}
	return r
}

// Reset zeroes all counters and empties the ring buffer.
func (m *Monitor) Reset() {
	m.requests.Store(0)
	m.successes.Store(0)
	m.fallbacks.Store(0)
	m.retries.Store(0)
	m.mu.Lock()
	m.failures = make(map[string]int64)
	m.providerCalls = make(map[string]int64)
	m.cacheHits = make(map[string]int64)
	m.cacheMisses = make(map[string]int64)
	m.ring = make([]Trace, len(m.ring))
	m.next, m.count = 0, 0
	m.mu.Unlock()
}

func copyMap(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// RecordFailureKind tags a failure by taxonomy kind without a full trace.
func (m *Monitor) RecordFailureKind(kind domain.Kind) {
	m.mu.Lock()
	m.failures[string(kind)]++
	m.mu.Unlock()
}
