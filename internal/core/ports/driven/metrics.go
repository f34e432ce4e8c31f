package driven

import "time"

// MetricsRecorder receives engine measurements.
type MetricsRecorder interface {
	ProcessingStarted()
	RecordProcessing(status string, chunks int, duration time.Duration)
	RecordSearch(status string, duration time.Duration)
	RecordDegradation(reason string)
	RecordBuild(tokens, deduplicated, dropped int)
}
