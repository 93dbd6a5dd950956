// Package perfstats computes timing statistics over flattened test records.
package perfstats

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/openshift/test-performance-analyzer/pkg/results"
	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

const (
	DefaultSlowThreshold = 5000
	DefaultFastThreshold = 1000
	DefaultFastLimit     = 10
)

// ErrEmptyDataset is returned for statistics that are undefined over zero records.
var ErrEmptyDataset = results.ForReason(results.ReasonEmptyDataset).Errorf("no test results to compute statistics over")

// Options holds the thresholds, in milliseconds, records are ranked by.
type Options struct {
	// SlowThreshold selects records strictly slower than it.
	SlowThreshold int64 `json:"slowThreshold,omitempty"`
	// FastThreshold selects records strictly faster than it.
	FastThreshold int64 `json:"fastThreshold,omitempty"`
	// FastLimit caps the number of fast records.
	FastLimit int `json:"fastLimit,omitempty"`
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SlowThreshold: DefaultSlowThreshold,
		FastThreshold: DefaultFastThreshold,
		FastLimit:     DefaultFastLimit,
	}
}

// Validate ensures the thresholds make sense.
func (o Options) Validate() error {
	var errs []error
	if o.SlowThreshold < 0 {
		errs = append(errs, fmt.Errorf("slow threshold must not be negative, got %d", o.SlowThreshold))
	}
	if o.FastThreshold < 0 {
		errs = append(errs, fmt.Errorf("fast threshold must not be negative, got %d", o.FastThreshold))
	}
	if o.FastLimit < 0 {
		errs = append(errs, fmt.Errorf("fast limit must not be negative, got %d", o.FastLimit))
	}
	return utilerrors.NewAggregate(errs)
}

// FileAggregate is the rollup of all records of one spec file.
type FileAggregate struct {
	File          string  `json:"file"`
	Count         int     `json:"count"`
	TotalDuration int64   `json:"totalDuration"`
	Median        float64 `json:"median"`
	Max           int64   `json:"max"`
}

// Average is the mean duration of the file's records in milliseconds.
func (f FileAggregate) Average() float64 {
	if f.Count == 0 {
		return 0
	}
	return float64(f.TotalDuration) / float64(f.Count)
}

// Summary holds everything that is reported about a run.
type Summary struct {
	Options Options `json:"options"`

	Count         int            `json:"count"`
	TotalDuration int64          `json:"totalDuration"`
	Passed        int            `json:"passed"`
	Failed        int            `json:"failed"`
	ByStatus      map[string]int `json:"byStatus,omitempty"`

	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    int64   `json:"max"`

	// Sorted holds all records, slowest first.
	Sorted []testreport.ExecutionRecord `json:"-"`
	Slow   []testreport.ExecutionRecord `json:"slow"`
	Fast   []testreport.ExecutionRecord `json:"fast"`
	Files  []FileAggregate              `json:"files"`
}

// Empty is true when there were no records to analyze.
func (s *Summary) Empty() bool {
	return s.Count == 0
}

// Average is the mean duration in milliseconds. It is undefined and
// returns ErrEmptyDataset when there are no records.
func (s *Summary) Average() (float64, error) {
	if s.Count == 0 {
		return 0, ErrEmptyDataset
	}
	return float64(s.TotalDuration) / float64(s.Count), nil
}

// Analyze computes the summary of records. The input is not modified.
func Analyze(records []testreport.ExecutionRecord, opts Options) *Summary {
	summary := &Summary{
		Options:  opts,
		Count:    len(records),
		ByStatus: map[string]int{},
	}
	for _, record := range records {
		summary.TotalDuration += record.Duration
		summary.ByStatus[record.Status]++
		switch record.Status {
		case testreport.StatusPassed:
			summary.Passed++
		case testreport.StatusFailed:
			summary.Failed++
		}
	}

	summary.Sorted = SortByDuration(records)
	summary.Slow = Slow(summary.Sorted, opts.SlowThreshold)
	summary.Fast = Fast(summary.Sorted, opts.FastThreshold, opts.FastLimit)
	summary.Files = ByFile(summary.Sorted)

	if len(records) > 0 {
		summary.Max = summary.Sorted[0].Duration
		durations := durationData(records)
		var err error
		if summary.Median, err = stats.Median(durations); err != nil {
			logrus.WithError(err).Warn("Failed to calculate the median duration")
		}
		if summary.P90, err = stats.Percentile(durations, 90); err != nil {
			// too few samples to interpolate
			logrus.WithError(err).Debug("Falling back to the maximum for the 90th percentile duration")
			summary.P90 = float64(summary.Max)
		}
	}
	return summary
}

// SortByDuration returns a copy of records, slowest first. Records of
// equal duration keep their relative order.
func SortByDuration(records []testreport.ExecutionRecord) []testreport.ExecutionRecord {
	sorted := make([]testreport.ExecutionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	return sorted
}

// Slow returns the records of sorted that took longer than threshold.
func Slow(sorted []testreport.ExecutionRecord, threshold int64) []testreport.ExecutionRecord {
	var slow []testreport.ExecutionRecord
	for _, record := range sorted {
		if record.Duration > threshold {
			slow = append(slow, record)
		}
	}
	return slow
}

// Fast returns up to limit records of sorted that took less than threshold.
// The records are taken from the slowest-first order, so these are the
// slowest of the fast records and not the fastest overall.
func Fast(sorted []testreport.ExecutionRecord, threshold int64, limit int) []testreport.ExecutionRecord {
	var fast []testreport.ExecutionRecord
	for _, record := range sorted {
		if len(fast) >= limit {
			break
		}
		if record.Duration < threshold {
			fast = append(fast, record)
		}
	}
	return fast
}

// ByFile groups records by their file, ordered by total duration with
// the most expensive file first. Files with equal totals are ordered by
// their first appearance in records, so passing the output of
// SortByDuration breaks ties by each file's slowest test.
func ByFile(records []testreport.ExecutionRecord) []FileAggregate {
	index := map[string]int{}
	var aggregates []FileAggregate
	durations := map[string]stats.Float64Data{}
	for _, record := range records {
		idx, seen := index[record.File]
		if !seen {
			idx = len(aggregates)
			index[record.File] = idx
			aggregates = append(aggregates, FileAggregate{File: record.File})
		}
		aggregates[idx].Count++
		aggregates[idx].TotalDuration += record.Duration
		if record.Duration > aggregates[idx].Max {
			aggregates[idx].Max = record.Duration
		}
		durations[record.File] = append(durations[record.File], float64(record.Duration))
	}

	var errs []error
	for i := range aggregates {
		median, err := stats.Median(durations[aggregates[i].File])
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to calculate median for %s: %w", aggregates[i].File, err))
			continue
		}
		aggregates[i].Median = median
	}
	if err := utilerrors.NewAggregate(errs); err != nil {
		logrus.WithError(err).Warn("Failed to calculate per-file statistics")
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].TotalDuration > aggregates[j].TotalDuration
	})
	return aggregates
}

func durationData(records []testreport.ExecutionRecord) stats.Float64Data {
	data := make(stats.Float64Data, 0, len(records))
	for _, record := range records {
		data = append(data, float64(record.Duration))
	}
	return data
}
