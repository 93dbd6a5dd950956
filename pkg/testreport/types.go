package testreport

import "time"

// Status values reported by Playwright for a single attempt of a test.
const (
	StatusPassed      = "passed"
	StatusFailed      = "failed"
	StatusTimedOut    = "timedOut"
	StatusSkipped     = "skipped"
	StatusInterrupted = "interrupted"
)

// RunReport is the document written by the Playwright JSON reporter.
// Suites is nil when the document has no suites list at all.
type RunReport struct {
	Suites []Suite     `json:"suites,omitempty"`
	Stats  *RunStats   `json:"stats,omitempty"`
	Errors []TestError `json:"errors,omitempty"`
}

// RunStats is the run-wide summary Playwright records next to the suites.
type RunStats struct {
	StartTime  time.Time `json:"startTime"`
	Duration   float64   `json:"duration"`
	Expected   int       `json:"expected"`
	Unexpected int       `json:"unexpected"`
	Flaky      int       `json:"flaky"`
	Skipped    int       `json:"skipped"`
}

// Suite is a node of the report tree. The outermost suites correspond to
// spec files, nested ones to describe blocks.
type Suite struct {
	Title  string  `json:"title"`
	File   string  `json:"file,omitempty"`
	Suites []Suite `json:"suites,omitempty"`
	Specs  []Spec  `json:"specs,omitempty"`
}

// Spec is a single test declaration.
type Spec struct {
	Title string `json:"title"`
	File  string `json:"file,omitempty"`
	Line  int    `json:"line,omitempty"`
	Tests []Test `json:"tests,omitempty"`
}

// Test is a spec bound to a project, e.g. a browser.
type Test struct {
	ProjectName    string   `json:"projectName,omitempty"`
	ExpectedStatus string   `json:"expectedStatus,omitempty"`
	Status         string   `json:"status,omitempty"`
	Results        []Result `json:"results,omitempty"`
}

// Result is one attempt of a test. Retried tests have several.
type Result struct {
	Duration  float64     `json:"duration"`
	Status    string      `json:"status"`
	Retry     int         `json:"retry,omitempty"`
	StartTime *time.Time  `json:"startTime,omitempty"`
	Error     *TestError  `json:"error,omitempty"`
	Errors    []TestError `json:"errors,omitempty"`
}

// TestError is the error Playwright attaches to a failed attempt.
type TestError struct {
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// ExecutionRecord is the flat projection of one attempt of one spec.
type ExecutionRecord struct {
	File     string `json:"file"`
	Suite    string `json:"suite"`
	Name     string `json:"name"`
	Project  string `json:"project,omitempty"`
	Duration int64  `json:"duration"`
	Status   string `json:"status"`
	Retry    int    `json:"retry,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DurationTime is the duration of the record as a time.Duration.
func (r ExecutionRecord) DurationTime() time.Duration {
	return time.Duration(r.Duration) * time.Millisecond
}

// Title is the human-readable identity of the record: the describe path
// followed by the spec title.
func (r ExecutionRecord) Title() string {
	if r.Suite == "" {
		return r.Name
	}
	return r.Suite + TitleSeparator + r.Name
}

// TitleSeparator joins nested describe titles, the way Playwright prints them.
const TitleSeparator = " › "
