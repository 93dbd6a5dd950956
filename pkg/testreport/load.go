package testreport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/api/option"
)

// DefaultLocation is where the Playwright JSON reporter of the suite writes.
const DefaultLocation = "test-results/test-results.json"

const gcsScheme = "gs://"

// Loader reads run reports from local files, GCS objects or HTTP(S) URLs.
type Loader struct {
	fs         afero.Fs
	httpClient *http.Client
	gcsOptions []option.ClientOption
	newGCS     func(ctx context.Context, opts ...option.ClientOption) (*storage.Client, error)
}

// LoaderOpt configures a Loader.
type LoaderOpt func(*Loader)

// WithFs sets the filesystem local locations are read from.
func WithFs(fs afero.Fs) LoaderOpt {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(client *http.Client) LoaderOpt {
	return func(l *Loader) {
		l.httpClient = client
	}
}

// WithGCSOptions sets the options the GCS client is created with.
func WithGCSOptions(opts ...option.ClientOption) LoaderOpt {
	return func(l *Loader) {
		l.gcsOptions = append(l.gcsOptions, opts...)
	}
}

// NewLoader creates a Loader that defaults to the OS filesystem and a
// retrying HTTP client.
func NewLoader(opts ...LoaderOpt) *Loader {
	l := &Loader{newGCS: storage.NewClient}
	for _, opt := range opts {
		opt(l)
	}
	if l.fs == nil {
		l.fs = afero.NewOsFs()
	}
	if l.httpClient == nil {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = 3
		retryClient.Logger = logAdapter{}
		l.httpClient = retryClient.StandardClient()
	}
	return l
}

// Load reads the report at location and flattens it.
func (l *Loader) Load(ctx context.Context, location string) ([]ExecutionRecord, error) {
	report, err := l.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	records, err := Flatten(report)
	if err != nil {
		return nil, malformedReport(location, err)
	}
	logrus.WithField("location", location).Debugf("Flattened report into %d records", len(records))
	return records, nil
}

// Read reads and decodes the report at location without flattening it.
func (l *Loader) Read(ctx context.Context, location string) (*RunReport, error) {
	raw, err := l.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	report := &RunReport{}
	if err := json.Unmarshal(raw, report); err != nil {
		return nil, malformedReport(location, err)
	}
	if report.Suites == nil {
		return nil, malformedReport(location, errors.New("report has no top-level suites list"))
	}
	return report, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case strings.HasPrefix(location, gcsScheme):
		return l.fetchFromGCS(ctx, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.fetchFromURL(ctx, location)
	default:
		return l.fetchFromFile(location)
	}
}

func (l *Loader) fetchFromFile(path string) ([]byte, error) {
	raw, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, missingReport(path, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return raw, nil
}

func (l *Loader) fetchFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to construct request for %s: %w", url, err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for request to %s: %w", url, err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, missingReport(url, fmt.Errorf("got http status code %d", resp.StatusCode))
	default:
		return nil, fmt.Errorf("got unexpected http status code %d for url %s. Response body:\n%s", resp.StatusCode, url, string(body))
	}
}

func (l *Loader) fetchFromGCS(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := parseGCSLocation(location)
	if err != nil {
		return nil, err
	}
	client, err := l.newGCS(ctx, l.gcsOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close GCS client")
		}
	}()

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, missingReport(location, err)
		}
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close GCS object reader")
		}
	}()
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return raw, nil
}

// parseGCSLocation splits gs://bucket/path/to/object into its bucket and object.
func parseGCSLocation(location string) (string, string, error) {
	bucket, object, found := strings.Cut(strings.TrimPrefix(location, gcsScheme), "/")
	if !found || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS location %q, expected gs://<bucket>/<object>", location)
	}
	return bucket, object, nil
}

type logAdapter struct{}

func (a logAdapter) format(s string, i ...interface{}) string {
	builder := strings.Builder{}
	builder.WriteString(s)
	for _, x := range i {
		builder.WriteString(" ")
		builder.WriteString(fmt.Sprintf("%v", x))
	}
	return builder.String()
}

func (a logAdapter) Error(s string, i ...interface{}) {
	logrus.Error(a.format(s, i...))
}

func (a logAdapter) Info(s string, i ...interface{}) {
	logrus.Debug(a.format(s, i...))
}

func (a logAdapter) Debug(s string, i ...interface{}) {
	logrus.Trace(a.format(s, i...))
}

func (a logAdapter) Warn(s string, i ...interface{}) {
	logrus.Warn(a.format(s, i...))
}

var _ retryablehttp.LeveledLogger = logAdapter{}
