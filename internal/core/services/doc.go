// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go and reach infrastructure only through driven ports.
package services

import "time"

// noopMetrics discards measurements when no recorder is wired.
type noopMetrics struct{}

func (noopMetrics) ProcessingStarted()                                {}
func (noopMetrics) RecordProcessing(_ string, _ int, _ time.Duration) {}
func (noopMetrics) RecordSearch(_ string, _ time.Duration)            {}
func (noopMetrics) RecordDegradation(_ string)                        {}
func (noopMetrics) RecordBuild(_, _, _ int)                           {}
