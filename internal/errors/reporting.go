// Package errors - pluggable error reporting (optional)
package errors

import (
	"sync"
	"sync/atomic"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	// hasActiveReporting gates the expensive auto-detection path in Build
	hasActiveReporting atomic.Bool

	reporterMu       sync.RWMutex
	activeReporter   TelemetryReporter
	reportedCallback func(*EnhancedError)
)

// SetTelemetryReporter installs a reporter for enhanced errors.
// Passing nil disables reporting.
func SetTelemetryReporter(reporter TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	activeReporter = reporter
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// SetReportedCallback installs a callback invoked after an error has been
// handed to the reporter. Used by tests to observe reporting.
func SetReportedCallback(fn func(*EnhancedError)) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	reportedCallback = fn
}

// reportToTelemetry forwards the error to the active reporter, if any.
// Reporting must never block or fail error construction.
func reportToTelemetry(ee *EnhancedError) {
	reporterMu.RLock()
	reporter := activeReporter
	callback := reportedCallback
	reporterMu.RUnlock()

	if reporter == nil || !reporter.IsEnabled() || ee.IsReported() {
		return
	}

	reporter.ReportError(ee)
	ee.MarkReported()

	if callback != nil {
		callback(ee)
	}
}
