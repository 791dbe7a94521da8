package authcore

import (
	"time"

	internalaudit "github.com/kvels/authcore/internal/audit"
	"github.com/kvels/authcore/password"
)

// Service is the authentication core. It owns credential hashing, session
// issuance, and the audit/metrics pipelines; user persistence and session
// caching are delegated to the stores supplied at build time.
//
// A Service is immutable after [Builder.Build] and safe for concurrent use
// as long as its stores are.
type Service struct {
	config    Config
	users     UserStore
	sessions  SessionStore
	hasher    *password.Hasher
	validator Validator
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
}

// Close flushes and stops the audit dispatcher. It does not close the
// stores; their lifecycles belong to the caller.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) observeLoginLatency(start time.Time) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Observe(MetricLoginLatency, time.Since(start))
}
