package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Build outcomes passed to IncBuildOutcome.
const (
	BuildOutcomeSuccess  = "success"
	BuildOutcomeFailed   = "failed"
	BuildOutcomeCanceled = "canceled"
)

// PageKind separates pages rendered from plain templates and from proxies.
type PageKind string

const (
	PageRegular PageKind = "regular"
	PageProxy   PageKind = "proxy"
)

// Recorder defines observability hooks for build and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	AddPagesRendered(kind PageKind, n int)
	AddAssetsWritten(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) AddPagesRendered(PageKind, int)             {}
func (NoopRecorder) AddAssetsWritten(int)                       {}
