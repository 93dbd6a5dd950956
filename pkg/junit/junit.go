// Package junit converts flattened Playwright results into jUnit XML.
package junit

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

// ProjectProperty names the suite property listing a Playwright project.
const ProjectProperty = "project"

var failedStatuses = sets.New[string](testreport.StatusFailed, testreport.StatusTimedOut, testreport.StatusInterrupted)

// FromRecords builds one suite per file, in the order files first appear.
func FromRecords(records []testreport.ExecutionRecord) *TestSuites {
	suites := &TestSuites{}
	byFile := map[string]*TestSuite{}
	projects := map[string]sets.Set[string]{}
	for _, record := range records {
		suite, ok := byFile[record.File]
		if !ok {
			suite = &TestSuite{Name: record.File}
			byFile[record.File] = suite
			projects[record.File] = sets.New[string]()
			suites.Suites = append(suites.Suites, suite)
		}
		if record.Project != "" && !projects[record.File].Has(record.Project) {
			projects[record.File].Insert(record.Project)
			suite.Properties = append(suite.Properties, TestSuiteProperty{Name: ProjectProperty, Value: record.Project})
		}
		testCase := &TestCase{
			Name:      record.Name,
			Classname: record.Suite,
			Duration:  float64(record.Duration) / 1000,
		}
		if record.Project != "" {
			testCase.Name = fmt.Sprintf("[%s] %s", record.Project, record.Name)
		}
		switch {
		case record.Status == testreport.StatusSkipped:
			testCase.SkipMessage = &SkipMessage{Message: "skipped"}
			suite.NumSkipped++
		case failedStatuses.Has(record.Status):
			testCase.FailureOutput = &FailureOutput{Message: record.Status, Output: record.Error}
			suite.NumFailed++
		}
		if record.Retry > 0 {
			testCase.SystemOut = fmt.Sprintf("retry #%d", record.Retry)
		}
		suite.NumTests++
		suite.Duration += testCase.Duration
		suite.TestCases = append(suite.TestCases, testCase)
	}
	return suites
}

// Write serializes suites to path on fs, creating parent directories.
func Write(fs afero.Fs, path string, suites *TestSuites) error {
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jUnit: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to make dir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, append([]byte(xml.Header), append(data, '\n')...), 0644); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	return nil
}
