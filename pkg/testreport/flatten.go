package testreport

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxDuration is the longest attempt, in milliseconds, a report may carry.
// Longer values cannot be expressed as a time.Duration.
const MaxDuration = float64(math.MaxInt64 / int64(time.Millisecond))

// Flatten converts the report tree into one record per attempt of every
// spec. Suites, specs, tests and results are visited depth-first in the
// order they appear in the report.
func Flatten(report *RunReport) ([]ExecutionRecord, error) {
	if report == nil {
		return nil, nil
	}
	var records []ExecutionRecord
	for i := range report.Suites {
		var err error
		if records, err = flattenSuite(records, &report.Suites[i], report.Suites[i].File, nil); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// flattenSuite appends the records of suite and its descendants. The file
// is inherited from the outermost suite that names one; titles holds the
// describe path below the file-level suite.
func flattenSuite(records []ExecutionRecord, suite *Suite, file string, titles []string) ([]ExecutionRecord, error) {
	if file == "" {
		file = suite.File
	}
	for _, spec := range suite.Specs {
		for _, test := range spec.Tests {
			for _, result := range test.Results {
				record, err := toRecord(file, strings.Join(titles, TitleSeparator), spec, test, result)
				if err != nil {
					return nil, err
				}
				records = append(records, record)
			}
		}
	}
	for i := range suite.Suites {
		child := &suite.Suites[i]
		var err error
		if records, err = flattenSuite(records, child, file, append(titles[:len(titles):len(titles)], child.Title)); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func toRecord(file, suite string, spec Spec, test Test, result Result) (ExecutionRecord, error) {
	if result.Duration < 0 || result.Duration > MaxDuration || math.IsNaN(result.Duration) || math.IsInf(result.Duration, 0) {
		return ExecutionRecord{}, fmt.Errorf("spec %q in %s has invalid duration %v", spec.Title, file, result.Duration)
	}
	record := ExecutionRecord{
		File:     file,
		Suite:    suite,
		Name:     spec.Title,
		Project:  test.ProjectName,
		Duration: int64(math.Round(result.Duration)),
		Status:   result.Status,
		Retry:    result.Retry,
	}
	switch {
	case result.Error != nil:
		record.Error = result.Error.Message
	case len(result.Errors) > 0:
		record.Error = result.Errors[0].Message
	}
	return record, nil
}
