package curago

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting pipeline metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordFilter is called after each quality-filter stage.
	// in is the batch size, rejected the number of rejected records.
	RecordFilter(in, rejected int, duration time.Duration)

	// RecordDedup is called after each deduplication stage.
	RecordDedup(in, exact, near int, duration time.Duration)

	// RecordValidation is called after each validation stage.
	RecordValidation(passed bool, duration time.Duration)

	// RecordSnapshot is called after each snapshot attempt.
	// err is nil if successful.
	RecordSnapshot(records int, duration time.Duration, err error)

	// RecordMerge is called after each merge-to-training attempt.
	RecordMerge(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFilter(int, int, time.Duration)           {}
func (NoopMetricsCollector) RecordDedup(int, int, int, time.Duration)       {}
func (NoopMetricsCollector) RecordValidation(bool, time.Duration)           {}
func (NoopMetricsCollector) RecordSnapshot(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordMerge(time.Duration, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FilterRuns        atomic.Int64
	FilterInput       atomic.Int64
	FilterRejected    atomic.Int64
	DedupRuns         atomic.Int64
	DedupInput        atomic.Int64
	DedupExact        atomic.Int64
	DedupNear         atomic.Int64
	ValidationRuns    atomic.Int64
	ValidationFailed  atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
	SnapshotRecords   atomic.Int64
	SnapshotTotalNano atomic.Int64
	MergeCount        atomic.Int64
	MergeErrors       atomic.Int64
}

// RecordFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFilter(in, rejected int, duration time.Duration) {
	b.FilterRuns.Add(1)
	b.FilterInput.Add(int64(in))
	b.FilterRejected.Add(int64(rejected))
}

// RecordDedup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDedup(in, exact, near int, duration time.Duration) {
	b.DedupRuns.Add(1)
	b.DedupInput.Add(int64(in))
	b.DedupExact.Add(int64(exact))
	b.DedupNear.Add(int64(near))
}

// RecordValidation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordValidation(passed bool, duration time.Duration) {
	b.ValidationRuns.Add(1)
	if !passed {
		b.ValidationFailed.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(records int, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotRecords.Add(int64(records))
	b.SnapshotTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(duration time.Duration, err error) {
	b.MergeCount.Add(1)
	if err != nil {
		b.MergeErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	FilterRuns       int64
	FilterInput      int64
	FilterRejected   int64
	DedupRuns        int64
	DedupInput       int64
	DedupExact       int64
	DedupNear        int64
	ValidationRuns   int64
	ValidationFailed int64
	SnapshotCount    int64
	SnapshotErrors   int64
	SnapshotRecords  int64
	MergeCount       int64
	MergeErrors      int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FilterRuns:       b.FilterRuns.Load(),
		FilterInput:      b.FilterInput.Load(),
		FilterRejected:   b.FilterRejected.Load(),
		DedupRuns:        b.DedupRuns.Load(),
		DedupInput:       b.DedupInput.Load(),
		DedupExact:       b.DedupExact.Load(),
		DedupNear:        b.DedupNear.Load(),
		ValidationRuns:   b.ValidationRuns.Load(),
		ValidationFailed: b.ValidationFailed.Load(),
		SnapshotCount:    b.SnapshotCount.Load(),
		SnapshotErrors:   b.SnapshotErrors.Load(),
		SnapshotRecords:  b.SnapshotRecords.Load(),
		MergeCount:       b.MergeCount.Load(),
		MergeErrors:      b.MergeErrors.Load(),
	}
}
