package perfreport

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/openshift/test-performance-analyzer/pkg/perfstats"
	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

// printTable renders the summary into a buffer and writes it in one go, so a
// failing writer surfaces as the returned error.
func printTable(w io.Writer, summary *perfstats.Summary) error {
	b := &strings.Builder{}
	average, err := summary.Average()
	if err != nil {
		fmt.Fprintf(b, "Total Tests: 0\n%s\n", NoTestsMessage)
		return write(w, b)
	}

	totals := tablewriter.NewWriter(b)
	totals.SetHeader([]string{"tests", "passed", "failed", "total", "average", "median", "p90", "max"})
	totals.Append([]string{
		strconv.Itoa(summary.Count),
		strconv.Itoa(summary.Passed),
		strconv.Itoa(summary.Failed),
		seconds(float64(summary.TotalDuration)) + "s",
		seconds(average) + "s",
		seconds(summary.Median) + "s",
		seconds(summary.P90) + "s",
		seconds(float64(summary.Max)) + "s",
	})
	totals.Render()

	printRecords(b, fmt.Sprintf("Slowest tests (> %s)", threshold(summary.Options.SlowThreshold)), summary.Slow)
	printRecords(b, fmt.Sprintf("Fastest tests (< %s)", threshold(summary.Options.FastThreshold)), summary.Fast)

	fmt.Fprintln(b, "Performance by test file")
	files := tablewriter.NewWriter(b)
	files.SetHeader([]string{"file", "tests", "total", "average", "median", "max"})
	for _, file := range summary.Files {
		files.Append([]string{
			file.File,
			strconv.Itoa(file.Count),
			seconds(float64(file.TotalDuration)) + "s",
			seconds(file.Average()) + "s",
			seconds(file.Median) + "s",
			seconds(float64(file.Max)) + "s",
		})
	}
	files.Render()
	return write(w, b)
}

func printRecords(b *strings.Builder, title string, records []testreport.ExecutionRecord) {
	fmt.Fprintln(b, title)
	table := tablewriter.NewWriter(b)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "duration", "test", "file", "status"})
	for i, record := range records {
		table.Append([]string{strconv.Itoa(i + 1), seconds(float64(record.Duration)) + "s", record.Title(), record.File, record.Status})
	}
	table.Render()
}
