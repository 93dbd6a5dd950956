package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/openshift/test-performance-analyzer/pkg/perfreport"
	"github.com/openshift/test-performance-analyzer/pkg/perfstats"
	"github.com/openshift/test-performance-analyzer/pkg/results"
	"github.com/openshift/test-performance-analyzer/pkg/testhelper"
	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

const report = `{
  "suites": [
    {
      "title": "a.spec.ts",
      "file": "a.spec.ts",
      "suites": [
        {
          "title": "Todo A",
          "specs": [
            {"title": "adds a task", "tests": [{"projectName": "chromium", "results": [{"duration": 6000, "status": "passed"}]}]},
            {"title": "edits a task", "tests": [{"projectName": "chromium", "results": [{"duration": 2000, "status": "passed"}]}]},
            {"title": "clears the input", "tests": [{"projectName": "chromium", "results": [{"duration": 500, "status": "passed"}]}]}
          ]
        }
      ]
    },
    {
      "title": "b.spec.ts",
      "file": "b.spec.ts",
      "suites": [
        {
          "title": "Todo B",
          "specs": [
            {"title": "filters tasks", "tests": [{"projectName": "chromium", "results": [{"duration": 9000, "status": "failed", "error": {"message": "expected 1 item"}}]}]}
          ]
        }
      ]
    }
  ]
}`

func fsWith(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return fs
}

func TestGatherOptions(t *testing.T) {
	var testCases = []struct {
		name        string
		args        []string
		files       map[string]string
		expected    options
		expectedErr bool
	}{
		{
			name: "zero arguments use the defaults",
			expected: options{
				report:     testreport.DefaultLocation,
				output:     "text",
				logLevel:   "info",
				thresholds: perfstats.DefaultOptions(),
			},
		},
		{
			name: "flags",
			args: []string{"--report=gs://bucket/run/test-results.json", "--output=json", "--slow-threshold=3000", "--fast-limit=5", "--junit-output=junit.xml"},
			expected: options{
				report:      "gs://bucket/run/test-results.json",
				output:      "json",
				junitOutput: "junit.xml",
				logLevel:    "info",
				thresholds:  perfstats.Options{SlowThreshold: 3000, FastThreshold: 1000, FastLimit: 5},
			},
		},
		{
			name:  "config file fills what flags do not set",
			args:  []string{"--config=config.yaml", "--fast-limit=3", "--output=table"},
			files: map[string]string{"config.yaml": "report: results/report.json\noutput: json\nslowThreshold: 10000\nfastLimit: 20\nmetricsOutput: playwright.prom\n"},
			expected: options{
				report:        "results/report.json",
				configPath:    "config.yaml",
				output:        "table",
				metricsOutput: "playwright.prom",
				logLevel:      "info",
				thresholds:    perfstats.Options{SlowThreshold: 10000, FastThreshold: 1000, FastLimit: 3},
			},
		},
		{
			name:  "empty config file keeps the defaults",
			args:  []string{"--config=config.yaml"},
			files: map[string]string{"config.yaml": ""},
			expected: options{
				report:     testreport.DefaultLocation,
				configPath: "config.yaml",
				output:     "text",
				logLevel:   "info",
				thresholds: perfstats.DefaultOptions(),
			},
		},
		{
			name:  "zero thresholds in the config file are applied",
			args:  []string{"--config=config.yaml"},
			files: map[string]string{"config.yaml": "slowThreshold: 0\nfastThreshold: 0\nfastLimit: 0\n"},
			expected: options{
				report:     testreport.DefaultLocation,
				configPath: "config.yaml",
				output:     "text",
				logLevel:   "info",
				thresholds: perfstats.Options{},
			},
		},
		{
			name:  "flags override zero thresholds in the config file",
			args:  []string{"--config=config.yaml", "--slow-threshold=2000"},
			files: map[string]string{"config.yaml": "slowThreshold: 0\nfastLimit: 0\n"},
			expected: options{
				report:     testreport.DefaultLocation,
				configPath: "config.yaml",
				output:     "text",
				logLevel:   "info",
				thresholds: perfstats.Options{SlowThreshold: 2000, FastThreshold: 1000, FastLimit: 0},
			},
		},
		{
			name:        "unknown config field",
			args:        []string{"--config=config.yaml"},
			files:       map[string]string{"config.yaml": "slowTreshold: 1\n"},
			expectedErr: true,
		},
		{
			name:        "missing config file",
			args:        []string{"--config=config.yaml"},
			expectedErr: true,
		},
		{
			name:        "unknown flag",
			args:        []string{"--verbose"},
			expectedErr: true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual, err := gatherOptions(fsWith(t, testCase.files), testCase.args)
			if (err != nil) != testCase.expectedErr {
				t.Fatalf("expected error %v, got %v", testCase.expectedErr, err)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(testCase.expected, *actual, cmp.AllowUnexported(options{})); diff != "" {
				t.Errorf("got incorrect options: %s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	var testCases = []struct {
		name     string
		options  options
		expected error
	}{
		{
			name:    "defaults are valid",
			options: options{report: testreport.DefaultLocation, output: "text", logLevel: "info", thresholds: perfstats.DefaultOptions()},
		},
		{
			name:     "everything wrong",
			options:  options{output: "yaml", logLevel: "loud", thresholds: perfstats.Options{FastLimit: -1}},
			expected: errors.New(`[--report must not be empty, unknown output format "yaml", must be one of json, table, text, invalid --log-level: not a valid logrus Level: "loud", fast limit must not be negative, got -1]`),
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if diff := cmp.Diff(testCase.expected, testCase.options.validate(), testhelper.EquateErrorMessage); diff != "" {
				t.Errorf("got incorrect error: %s", diff)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	var testCases = []struct {
		name        string
		args        []string
		expectedErr string
	}{
		{
			name: "valid options",
			args: []string{"--output=json"},
		},
		{
			name:        "unknown flag",
			args:        []string{"--verbose"},
			expectedErr: "failed to gather options",
		},
		{
			name:        "invalid value",
			args:        []string{"--output=yaml"},
			expectedErr: "invalid options",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			o, err := complete(afero.NewMemMapFs(), testCase.args)
			if testCase.expectedErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if o.format != perfreport.FormatJSON {
					t.Errorf("expected the format to be resolved, got %q", o.format)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected an error, got none")
			}
			if !strings.Contains(err.Error(), testCase.expectedErr) {
				t.Errorf("expected error to contain %q, got %v", testCase.expectedErr, err)
			}
			if actual, expected := results.FullReason(err), string(results.ReasonLoadingArgs); actual != expected {
				t.Errorf("expected reason %q, got %q", expected, actual)
			}
		})
	}
}

func TestRunReasons(t *testing.T) {
	var testCases = []struct {
		name     string
		fs       afero.Fs
		options  options
		expected string
	}{
		{
			name:     "invalid GCS location has no specific reason",
			fs:       afero.NewMemMapFs(),
			options:  options{report: "gs://bucket-only"},
			expected: string(results.ReasonUnknown),
		},
		{
			name:     "malformed report",
			fs:       fsWith(t, map[string]string{testreport.DefaultLocation: `{}`}),
			options:  options{report: testreport.DefaultLocation},
			expected: string(results.ReasonMalformedReport),
		},
		{
			name:     "unwritable jUnit output",
			fs:       afero.NewReadOnlyFs(fsWith(t, map[string]string{testreport.DefaultLocation: report})),
			options:  options{report: testreport.DefaultLocation, junitOutput: "artifacts/junit_playwright.xml"},
			expected: string(results.ReasonWritingOutput),
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.options.format = perfreport.FormatText
			testCase.options.thresholds = perfstats.DefaultOptions()
			err := run(context.Background(), &testCase.options, testCase.fs, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected an error, got none")
			}
			if actual := results.FullReason(err); actual != testCase.expected {
				t.Errorf("expected reason %q, got %q", testCase.expected, actual)
			}
		})
	}
}

func TestRun(t *testing.T) {
	fs := fsWith(t, map[string]string{testreport.DefaultLocation: report})
	o := &options{
		report:        testreport.DefaultLocation,
		output:        "text",
		logLevel:      "info",
		junitOutput:   "artifacts/junit_playwright.xml",
		metricsOutput: filepath.Join(t.TempDir(), "playwright.prom"),
		thresholds:    perfstats.DefaultOptions(),
	}
	if err := o.validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	out := &bytes.Buffer{}
	if err := run(context.Background(), o, fs, out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testhelper.CompareWithFixture(t, out.String(), testhelper.WithExtension(".txt"))

	junitXML, err := afero.ReadFile(fs, o.junitOutput)
	if err != nil {
		t.Fatalf("expected jUnit output to be written: %v", err)
	}
	if !strings.Contains(string(junitXML), `<failure message="failed">expected 1 item</failure>`) {
		t.Errorf("expected jUnit output to contain the failure, got:\n%s", string(junitXML))
	}
}

func TestRunEmptyReport(t *testing.T) {
	fs := fsWith(t, map[string]string{testreport.DefaultLocation: `{"suites": []}`})
	o := &options{report: testreport.DefaultLocation, format: perfreport.FormatText, thresholds: perfstats.DefaultOptions()}
	out := &bytes.Buffer{}
	if err := run(context.Background(), o, fs, out); err != nil {
		t.Fatalf("expected an empty report to succeed, got %v", err)
	}
	if !strings.Contains(out.String(), "Total Tests: 0\n") || !strings.Contains(out.String(), perfreport.NoTestsMessage) {
		t.Errorf("expected output to state there are no tests, got:\n%s", out.String())
	}
}

func TestRunMissingReport(t *testing.T) {
	o := &options{report: testreport.DefaultLocation, format: perfreport.FormatText, thresholds: perfstats.DefaultOptions()}
	out := &bytes.Buffer{}
	err := run(context.Background(), o, afero.NewMemMapFs(), out)
	if !testreport.IsMissingReport(err) {
		t.Fatalf("expected a missing report error, got %v", err)
	}
	if actual, expected := results.FullReason(err), "missing_report"; actual != expected {
		t.Errorf("expected reason %q, got %q", expected, actual)
	}
	if !strings.Contains(err.Error(), testreport.RegenerateHint) {
		t.Errorf("expected the error to tell how to regenerate the report, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got:\n%s", out.String())
	}
}
