package errors

import (
	"fmt"
	"testing"
)

func TestFastPathNoTelemetry(t *testing.T) {
	// Ensure no telemetry reporter is active
	SetTelemetryReporter(nil)

	// Create an error - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestBuilderPreservesExplicitFields(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("provider search failed: %s", "kyoto").
		Component("mediaprovider").
		Category(CategoryMediaFetch).
		Context("provider", "unsplash").
		Context("query", "Kyoto Japan travel").
		Build()

	if ee.GetComponent() != "mediaprovider" {
		t.Errorf("Expected component 'mediaprovider', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryMediaFetch {
		t.Errorf("Expected category media-fetch, got '%s'", ee.Category)
	}
	ctx := ee.GetContext()
	if ctx["provider"] != "unsplash" {
		t.Errorf("Expected provider context 'unsplash', got '%v'", ctx["provider"])
	}
}

func TestUnwrapAndIs(t *testing.T) {
	SetTelemetryReporter(nil)

	sentinel := NewStd("underlying failure")
	ee := New(sentinel).Category(CategoryDatabase).Build()

	if !Is(ee, sentinel) {
		t.Error("Expected enhanced error to match wrapped sentinel via Is")
	}
	if Unwrap(ee) != sentinel {
		t.Error("Expected Unwrap to return the original error")
	}
}

func TestIsCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("rows missing").Category(CategoryNotFound).Build()
	if !IsCategory(ee, CategoryNotFound) {
		t.Error("Expected IsCategory to match CategoryNotFound")
	}
	if !IsNotFound(ee) {
		t.Error("Expected IsNotFound to match")
	}
	if IsCategory(ee, CategoryDatabase) {
		t.Error("Did not expect IsCategory to match CategoryDatabase")
	}
}

type stubReporter struct {
	enabled  bool
	reported []*EnhancedError
}

func (s *stubReporter) ReportError(ee *EnhancedError) { s.reported = append(s.reported, ee) }
func (s *stubReporter) IsEnabled() bool               { return s.enabled }

func TestReporterReceivesBuiltErrors(t *testing.T) {
	reporter := &stubReporter{enabled: true}
	SetTelemetryReporter(reporter)
	defer SetTelemetryReporter(nil)

	ee := Newf("refresh failed").Component("mediacache").Category(CategoryMediaCache).Build()

	if len(reporter.reported) != 1 {
		t.Fatalf("Expected 1 reported error, got %d", len(reporter.reported))
	}
	if !ee.IsReported() {
		t.Error("Expected error to be marked reported")
	}
}
