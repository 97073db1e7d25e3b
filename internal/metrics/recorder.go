package metrics

import "time"

// ResultLabel enumerates per-page result categories for counters.
type ResultLabel string

const (
	ResultRendered  ResultLabel = "rendered"
	ResultUnchanged ResultLabel = "unchanged"
	ResultFailed    ResultLabel = "failed"
	ResultCanceled  ResultLabel = "canceled"
)

// BatchOutcome is the final status of a batch.
type BatchOutcome string

const (
	OutcomeSuccess BatchOutcome = "success"
	OutcomeWarning BatchOutcome = "warning"
	OutcomeFailed  BatchOutcome = "failed"
)

// Recorder defines observability hooks for batch, stage and page metrics.
// Implementations must be safe for concurrent use; pages report from worker goroutines.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBatchDuration(d time.Duration)
	ObservePageDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	IncErrors(category string)
	IncBatchOutcome(outcome BatchOutcome)
	SetBatchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBatchDuration(time.Duration)         {}
func (NoopRecorder) ObservePageDuration(time.Duration)          {}
func (NoopRecorder) IncPageResult(ResultLabel)                  {}
func (NoopRecorder) IncErrors(string)                           {}
func (NoopRecorder) IncBatchOutcome(BatchOutcome)               {}
func (NoopRecorder) SetBatchConcurrency(int)                    {}
