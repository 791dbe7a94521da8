package authcore

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram slot in the in-process
// metrics registry.
type MetricID uint16

const (
	// MetricSignupSuccess counts accounts created by Signup.
	MetricSignupSuccess MetricID = iota
	// MetricSignupDuplicate counts signups rejected on a duplicate email.
	MetricSignupDuplicate
	// MetricSignupRejected counts signups rejected by form validation.
	MetricSignupRejected
	// MetricSignupExternal counts accounts created by SignupExternal.
	MetricSignupExternal
	// MetricLoginSuccess counts credential logins that issued a key.
	MetricLoginSuccess
	// MetricLoginFailure counts password mismatches.
	MetricLoginFailure
	// MetricLoginUnknownEmail counts logins against unregistered emails.
	MetricLoginUnknownEmail
	// MetricLoginExternal counts externally vouched logins.
	MetricLoginExternal
	// MetricSessionIssued counts session keys written to the cache.
	MetricSessionIssued
	// MetricSessionRevoked counts session keys removed from the cache.
	MetricSessionRevoked
	// MetricLogout counts logouts that removed a live session.
	MetricLogout
	// MetricLogoutNoop counts logouts against absent sessions.
	MetricLogoutNoop
	// MetricAccountDeleted counts account deletions.
	MetricAccountDeleted
	// MetricBackendError counts store and cache faults.
	MetricBackendError
	// MetricLoginLatency is the login-path latency histogram.
	MetricLoginLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds cache-line-padded atomic counters and an optional login
// latency histogram. The write path is lock free and allocation free.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] registry. When cfg.Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the registry records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a login-path latency sample.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLoginLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histogram buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLoginLatency].buckets[i])
		}
		s.Histograms[MetricLoginLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
