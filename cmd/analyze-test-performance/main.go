package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
	"sigs.k8s.io/yaml"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/openshift/test-performance-analyzer/pkg/junit"
	"github.com/openshift/test-performance-analyzer/pkg/metrics"
	"github.com/openshift/test-performance-analyzer/pkg/perfreport"
	"github.com/openshift/test-performance-analyzer/pkg/perfstats"
	"github.com/openshift/test-performance-analyzer/pkg/results"
	"github.com/openshift/test-performance-analyzer/pkg/testreport"
)

// config is the content of the optional --config file. Flags that are set
// explicitly take precedence over it.
type config struct {
	Report        string `json:"report,omitempty"`
	Output        string `json:"output,omitempty"`
	JUnitOutput   string `json:"junitOutput,omitempty"`
	MetricsOutput string `json:"metricsOutput,omitempty"`

	SlowThreshold *int64 `json:"slowThreshold,omitempty"`
	FastThreshold *int64 `json:"fastThreshold,omitempty"`
	FastLimit     *int   `json:"fastLimit,omitempty"`
}

type options struct {
	report             string
	configPath         string
	output             string
	junitOutput        string
	metricsOutput      string
	gcsCredentialsFile string
	logLevel           string

	thresholds perfstats.Options
	format     perfreport.Format
}

func bindOptions(fs *flag.FlagSet) *options {
	o := &options{}
	defaults := perfstats.DefaultOptions()
	fs.StringVar(&o.report, "report", testreport.DefaultLocation, "Playwright JSON report to analyze: a local path, gs://bucket/object or an http(s) URL.")
	fs.StringVar(&o.configPath, "config", "", "Optional YAML file holding thresholds and outputs. Flags set explicitly override it.")
	fs.StringVar(&o.output, "output", string(perfreport.FormatText), "Output format: text, table or json.")
	fs.StringVar(&o.junitOutput, "junit-output", "", "If set, write the results as jUnit XML to this path.")
	fs.StringVar(&o.metricsOutput, "metrics-output", "", "If set, write Prometheus metrics in the textfile format to this path.")
	fs.StringVar(&o.gcsCredentialsFile, "gcs-credentials-file", "", "Credentials used to read gs:// reports. Application default credentials are used if unset.")
	fs.StringVar(&o.logLevel, "log-level", logrus.InfoLevel.String(), "Level at which to log output.")
	fs.Int64Var(&o.thresholds.SlowThreshold, "slow-threshold", defaults.SlowThreshold, "Tests taking longer than this many milliseconds are reported as slow.")
	fs.Int64Var(&o.thresholds.FastThreshold, "fast-threshold", defaults.FastThreshold, "Tests taking less than this many milliseconds are reported as fast.")
	fs.IntVar(&o.thresholds.FastLimit, "fast-limit", defaults.FastLimit, "Maximum number of fast tests to report.")
	return o
}

func gatherOptions(fs afero.Fs, args []string) (*options, error) {
	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	o := bindOptions(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	if o.configPath != "" {
		set := map[string]bool{}
		flagSet.Visit(func(f *flag.Flag) {
			set[f.Name] = true
		})
		if err := o.loadConfig(fs, set); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *options) loadConfig(fs afero.Fs, set map[string]bool) error {
	raw, err := afero.ReadFile(fs, o.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", o.configPath, err)
	}
	cfg := config{}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", o.configPath, err)
	}
	for flagName, apply := range map[string]func(){
		"report":         func() { o.report = cfg.Report },
		"output":         func() { o.output = cfg.Output },
		"junit-output":   func() { o.junitOutput = cfg.JUnitOutput },
		"metrics-output": func() { o.metricsOutput = cfg.MetricsOutput },
	} {
		if !set[flagName] {
			apply()
		}
	}
	if !set["report"] && o.report == "" {
		o.report = testreport.DefaultLocation
	}
	if !set["output"] && o.output == "" {
		o.output = string(perfreport.FormatText)
	}
	if !set["slow-threshold"] && cfg.SlowThreshold != nil {
		o.thresholds.SlowThreshold = *cfg.SlowThreshold
	}
	if !set["fast-threshold"] && cfg.FastThreshold != nil {
		o.thresholds.FastThreshold = *cfg.FastThreshold
	}
	if !set["fast-limit"] && cfg.FastLimit != nil {
		o.thresholds.FastLimit = *cfg.FastLimit
	}
	return nil
}

func (o *options) validate() error {
	var errs []error
	if o.report == "" {
		errs = append(errs, errors.New("--report must not be empty"))
	}
	format, err := perfreport.ParseFormat(o.output)
	if err != nil {
		errs = append(errs, err)
	}
	o.format = format
	if _, err := logrus.ParseLevel(o.logLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid --log-level: %w", err))
	}
	if err := o.thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	return utilerrors.NewAggregate(errs)
}

// complete gathers and validates the options.
func complete(fs afero.Fs, args []string) (*options, error) {
	o, err := gatherOptions(fs, args)
	if err != nil {
		return nil, results.ForReason(results.ReasonLoadingArgs).WithError(err).Errorf("failed to gather options: %v", err)
	}
	if err := o.validate(); err != nil {
		return nil, results.ForReason(results.ReasonLoadingArgs).WithError(err).Errorf("invalid options: %v", err)
	}
	return o, nil
}

func (o *options) loader(fs afero.Fs) *testreport.Loader {
	opts := []testreport.LoaderOpt{testreport.WithFs(fs)}
	if o.gcsCredentialsFile != "" {
		opts = append(opts, testreport.WithGCSOptions(option.WithCredentialsFile(o.gcsCredentialsFile)))
	}
	return testreport.NewLoader(opts...)
}

// run analyzes the report and writes every requested output. The returned
// error always carries a reason.
func run(ctx context.Context, o *options, fs afero.Fs, out io.Writer) error {
	return results.DefaultReason(analyze(ctx, o, fs, out))
}

func analyze(ctx context.Context, o *options, fs afero.Fs, out io.Writer) error {
	records, err := o.loader(fs).Load(ctx, o.report)
	if err != nil {
		return err
	}
	logrus.WithField("report", o.report).Infof("Loaded %d test results", len(records))

	summary := perfstats.Analyze(records, o.thresholds)
	if summary.Empty() {
		logrus.WithField("report", o.report).Warn("The report does not contain any test results")
	}
	if err := perfreport.Print(out, summary, o.format); err != nil {
		return results.ForReason(results.ReasonWritingOutput).ForError(err)
	}

	if o.junitOutput != "" {
		if err := junit.Write(fs, o.junitOutput, junit.FromRecords(records)); err != nil {
			return results.ForReason(results.ReasonWritingOutput).WithError(err).Errorf("failed to write jUnit results to %s: %v", o.junitOutput, err)
		}
		logrus.WithField("path", o.junitOutput).Info("Wrote jUnit results")
	}
	if o.metricsOutput != "" {
		recorder, err := metrics.NewRecorder()
		if err != nil {
			return err
		}
		recorder.Observe(summary)
		if err := recorder.WriteTextfile(o.metricsOutput); err != nil {
			return results.ForReason(results.ReasonWritingOutput).WithError(err).Errorf("failed to write metrics to %s: %v", o.metricsOutput, err)
		}
		logrus.WithField("path", o.metricsOutput).Info("Wrote metrics")
	}
	return nil
}

func main() {
	logrus.SetOutput(os.Stderr)
	fs := afero.NewOsFs()
	o, err := complete(fs, os.Args[1:])
	if err != nil {
		logrus.WithError(err).WithField("reason", results.FullReason(err)).Fatal("Failed to load options")
	}
	level, _ := logrus.ParseLevel(o.logLevel)
	logrus.SetLevel(level)

	if err := run(context.Background(), o, fs, os.Stdout); err != nil {
		logrus.WithError(err).WithField("reason", results.FullReason(err)).Fatal("Failed to analyze test performance")
	}
}
