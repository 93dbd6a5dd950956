package testreport

import (
	"errors"
	"fmt"

	"github.com/openshift/test-performance-analyzer/pkg/results"
)

// RegenerateHint tells the operator how to produce a report.
const RegenerateHint = "Run: npx playwright test --project=chromium"

// MissingReportError is returned when there is no report at the location.
type MissingReportError struct {
	Location string
	Err      error
}

func (e *MissingReportError) Error() string {
	return fmt.Sprintf("no test results found at %s. %s", e.Location, RegenerateHint)
}

func (e *MissingReportError) Unwrap() error {
	return e.Err
}

// MalformedReportError is returned when the report is not valid JSON or
// does not have the shape of a run report.
type MalformedReportError struct {
	Location string
	Err      error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed test results at %s: %v", e.Location, e.Err)
}

func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

func missingReport(location string, err error) error {
	return results.ForReason(results.ReasonMissingReport).ForError(&MissingReportError{Location: location, Err: err})
}

func malformedReport(location string, err error) error {
	return results.ForReason(results.ReasonMalformedReport).ForError(&MalformedReportError{Location: location, Err: err})
}

// IsMissingReport determines whether err was caused by an absent report.
func IsMissingReport(err error) bool {
	var target *MissingReportError
	return errors.As(err, &target)
}

// IsMalformedReport determines whether err was caused by an undecodable report.
func IsMalformedReport(err error) bool {
	var target *MalformedReportError
	return errors.As(err, &target)
}
