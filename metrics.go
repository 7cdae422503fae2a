package setq

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics
// about query evaluation. Implement this interface to integrate with
// monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    countCounter     prometheus.Counter
//	    membersHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCount(duration time.Duration, err error) {
//	    p.countCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCount is called after each cardinality evaluation.
	// duration is the total time taken, err is nil if successful.
	RecordCount(duration time.Duration, err error)

	// RecordMembers is called after each materialization.
	// n is the number of members returned, duration is the total time
	// taken, err is nil if successful.
	RecordMembers(n int, duration time.Duration, err error)

	// RecordTempKeysDeleted is called with the number of temporary keys an
	// evaluation created and cleaned up.
	RecordTempKeysDeleted(n int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCount(time.Duration, error)        {}
func (NoopMetricsCollector) RecordMembers(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordTempKeysDeleted(int)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CountOps         atomic.Int64
	CountErrors      atomic.Int64
	CountTotalNanos  atomic.Int64
	MemberOps        atomic.Int64
	MemberErrors     atomic.Int64
	MemberTotalNanos atomic.Int64
	MembersReturned  atomic.Int64
	TempKeysDeleted  atomic.Int64
}

// RecordCount implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCount(duration time.Duration, err error) {
	b.CountOps.Add(1)
	b.CountTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CountErrors.Add(1)
	}
}

// RecordMembers implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMembers(n int, duration time.Duration, err error) {
	b.MemberOps.Add(1)
	b.MemberTotalNanos.Add(duration.Nanoseconds())
	b.MembersReturned.Add(int64(n))
	if err != nil {
		b.MemberErrors.Add(1)
	}
}

// RecordTempKeysDeleted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTempKeysDeleted(n int) {
	b.TempKeysDeleted.Add(int64(n))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CountOps:        b.CountOps.Load(),
		CountErrors:     b.CountErrors.Load(),
		CountAvgNanos:   b.getAvgCountNanos(),
		MemberOps:       b.MemberOps.Load(),
		MemberErrors:    b.MemberErrors.Load(),
		MemberAvgNanos:  b.getAvgMemberNanos(),
		MembersReturned: b.MembersReturned.Load(),
		TempKeysDeleted: b.TempKeysDeleted.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCountNanos() int64 {
	count := b.CountOps.Load()
	if count == 0 {
		return 0
	}
	return b.CountTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgMemberNanos() int64 {
	count := b.MemberOps.Load()
	if count == 0 {
		return 0
	}
	return b.MemberTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CountOps        int64
	CountErrors     int64
	CountAvgNanos   int64
	MemberOps       int64
	MemberErrors    int64
	MemberAvgNanos  int64
	MembersReturned int64
	TempKeysDeleted int64
}
