// Package perfreport renders a performance summary for humans and machines.
package perfreport

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/test-performance-analyzer/pkg/perfstats"
	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

// Format is an output format of the report.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

var formats = sets.New[Format](FormatText, FormatTable, FormatJSON)

// ParseFormat validates a user-provided format.
func ParseFormat(raw string) (Format, error) {
	format := Format(raw)
	if !formats.Has(format) {
		return "", fmt.Errorf("unknown output format %q, must be one of %s", raw, strings.Join(sortedFormats(), ", "))
	}
	return format, nil
}

func sortedFormats() []string {
	var names []string
	for _, format := range sets.List(formats) {
		names = append(names, string(format))
	}
	return names
}

// NoTestsMessage is printed instead of statistics for an empty report.
const NoTestsMessage = "No tests found in report."

const width = 80

// Print writes summary to w in the given format.
func Print(w io.Writer, summary *perfstats.Summary, format Format) error {
	switch format {
	case FormatText, "":
		return printText(w, summary)
	case FormatTable:
		return printTable(w, summary)
	case FormatJSON:
		return printJSON(w, summary)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printText(w io.Writer, summary *perfstats.Summary) error {
	b := &strings.Builder{}
	fmt.Fprintln(b, "TEST PERFORMANCE ANALYSIS")
	fmt.Fprintln(b, strings.Repeat("=", width))
	fmt.Fprintf(b, "Total Tests: %d\n", summary.Count)
	fmt.Fprintf(b, "Passed: %d\n", summary.Passed)
	fmt.Fprintf(b, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(b, "Total Duration: %ss\n", seconds(float64(summary.TotalDuration)))
	average, err := summary.Average()
	if err != nil {
		fmt.Fprintln(b, NoTestsMessage)
		return write(w, b)
	}
	fmt.Fprintf(b, "Average Duration: %ss\n", seconds(average))
	fmt.Fprintf(b, "Median Duration: %ss\n", seconds(summary.Median))
	fmt.Fprintln(b)

	fmt.Fprintf(b, "SLOWEST TESTS (> %s):\n", threshold(summary.Options.SlowThreshold))
	fmt.Fprintln(b, strings.Repeat("-", width))
	for i, record := range summary.Slow {
		fmt.Fprintf(b, "%d. [%ss] %s\n", i+1, seconds(float64(record.Duration)), record.Title())
		fmt.Fprintf(b, "   File: %s\n", record.File)
	}
	fmt.Fprintln(b)

	fmt.Fprintf(b, "FASTEST TESTS (< %s):\n", threshold(summary.Options.FastThreshold))
	fmt.Fprintln(b, strings.Repeat("-", width))
	for i, record := range summary.Fast {
		fmt.Fprintf(b, "%d. [%ss] %s\n", i+1, seconds(float64(record.Duration)), record.Title())
	}
	fmt.Fprintln(b)

	fmt.Fprintln(b, "PERFORMANCE BY TEST FILE:")
	fmt.Fprintln(b, strings.Repeat("-", width))
	for _, file := range summary.Files {
		fmt.Fprintf(b, "%s: %d tests, %ss total, %ss avg\n", file.File, file.Count, seconds(float64(file.TotalDuration)), seconds(file.Average()))
	}
	return write(w, b)
}

func write(w io.Writer, b *strings.Builder) error {
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// seconds formats milliseconds as seconds with two decimals. Values exactly
// halfway between two hundredths round away from zero.
func seconds(millis float64) string {
	value := millis / 1000
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%.2f", value)
	}
	sign := ""
	if value < 0 {
		sign, value = "-", -value
	}
	hundredths := new(big.Rat).SetFloat64(value)
	hundredths.Mul(hundredths, big.NewRat(100, 1))
	hundredths.Add(hundredths, big.NewRat(1, 2))
	rounded := new(big.Int).Quo(hundredths.Num(), hundredths.Denom())
	whole, fraction := new(big.Int).QuoRem(rounded, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, whole, fraction.Int64())
}

func threshold(millis int64) string {
	return (time.Duration(millis) * time.Millisecond).String()
}

type jsonReport struct {
	*perfstats.Summary
	Average *float64     `json:"average"`
	Files   []jsonFile   `json:"files"`
	Slow    []jsonRecord `json:"slow"`
	Fast    []jsonRecord `json:"fast"`
}

type jsonFile struct {
	perfstats.FileAggregate
	Average float64 `json:"average"`
}

type jsonRecord struct {
	testreport.ExecutionRecord
	Title string `json:"title"`
}

func printJSON(w io.Writer, summary *perfstats.Summary) error {
	report := jsonReport{Summary: summary, Files: []jsonFile{}, Slow: toJSONRecords(summary.Slow), Fast: toJSONRecords(summary.Fast)}
	if average, err := summary.Average(); err == nil {
		report.Average = &average
	}
	for _, file := range summary.Files {
		report.Files = append(report.Files, jsonFile{FileAggregate: file, Average: file.Average()})
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func toJSONRecords(records []testreport.ExecutionRecord) []jsonRecord {
	out := []jsonRecord{}
	for _, record := range records {
		out = append(out, jsonRecord{ExecutionRecord: record, Title: record.Title()})
	}
	return out
}
