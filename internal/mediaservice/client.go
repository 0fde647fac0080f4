package mediaservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vodflow/internal/logging"
)

const userAgent = "vodflow/0.1.0"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options describes client construction parameters.
type Options struct {
	// Endpoint is the base REST endpoint, without a trailing slash.
	Endpoint string
	// TokenEndpoint receives the client-credentials exchange.
	TokenEndpoint string
	ClientID      string
	ClientSecret  string

	HTTPClient HTTPDoer
	Logger     *slog.Logger

	// PolicyDurationMinutes is applied to newly created access policies.
	PolicyDurationMinutes int
	// LocatorNamePrefix is suffixed with the locator's role on creation.
	LocatorNamePrefix string
	// PollInterval separates job state checks.
	PollInterval time.Duration
	// JobMaxWait bounds the poll loop before ErrTimeout is reported.
	JobMaxWait time.Duration
}

// Client is a REST client for the remote media service. Methods take the
// bearer token by value; the client itself holds only transport and request
// defaults.
type Client struct {
	endpoint      string
	tokenEndpoint string
	clientID      string
	clientSecret  string

	http   HTTPDoer
	logger *slog.Logger

	policyDuration int
	locatorPrefix  string
	pollInterval   time.Duration
	jobMaxWait     time.Duration

	now func() time.Time
}

// New constructs a media service client. Zero option fields fall back to
// package defaults.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	duration := opts.PolicyDurationMinutes
	if duration <= 0 {
		duration = defaultPolicyDurationMinutes
	}
	prefix := strings.TrimSpace(opts.LocatorNamePrefix)
	if prefix == "" {
		prefix = defaultLocatorNamePrefix
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxWait := opts.JobMaxWait
	if maxWait <= 0 {
		maxWait = defaultJobMaxWait
	}
	return &Client{
		endpoint:       strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		tokenEndpoint:  strings.TrimSpace(opts.TokenEndpoint),
		clientID:       opts.ClientID,
		clientSecret:   opts.ClientSecret,
		http:           httpClient,
		logger:         logging.NewComponentLogger(logger, "mediaservice"),
		policyDuration: duration,
		locatorPrefix:  prefix,
		pollInterval:   interval,
		jobMaxWait:     maxWait,
		now:            time.Now,
	}
}

const (
	defaultPolicyDurationMinutes = 1576800
	defaultLocatorNamePrefix     = "Vodflow"
	defaultPollInterval          = 5 * time.Second
	defaultJobMaxWait            = 2 * time.Hour
)

// headerMode selects the content-negotiation profile for a request.
type headerMode int

const (
	// modeJSON is the plain JSON profile used by resource collections.
	modeJSON headerMode = iota
	// modeVerbose is the verbose-odata profile required by job endpoints.
	modeVerbose
	// modeNetFx is the legacy data-service profile required by action
	// endpoints such as CreateFileInfos and the processor catalog.
	modeNetFx
)

func (c *Client) url(path string) string {
	return c.endpoint + "/" + strings.TrimLeft(path, "/")
}

func applyHeaders(req *http.Request, mode headerMode, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	switch mode {
	case modeVerbose:
		req.Header.Set("Content-Type", "application/json;odata=verbose")
		req.Header.Set("Accept", "application/json;odata=verbose")
		req.Header.Set("DataServiceVersion", "3.0")
		req.Header.Set("MaxDataServiceVersion", "3.0")
		req.Header.Set("x-ms-version", "2.17")
	case modeNetFx:
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Charset", "UTF-8")
		req.Header.Set("DataServiceVersion", "1.0;NetFx")
		req.Header.Set("MaxDataServiceVersion", "3.0;NetFx")
		req.Header.Set("x-ms-version", "2.17")
	default:
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("DataServiceVersion", "3.0")
		req.Header.Set("MaxDataServiceVersion", "3.0")
		req.Header.Set("x-ms-version", "2.15")
	}
}

// doJSON issues a request against an absolute URL and decodes the JSON
// response into out when out is non-nil. Responses with status >= 400 are
// returned as errors carrying a body excerpt.
func (c *Client) doJSON(ctx context.Context, method, url string, mode headerMode, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	applyHeaders(req, mode, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newStatusError(method, url, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx response, preserving the code so callers can
// special-case statuses such as 404 on locator deletion.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func newStatusError(method, url string, resp *http.Response) *StatusError {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Method: method,
		URL:    url,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(excerpt)),
	}
}

// serviceTime formats a timestamp the way the service expects:
// YYYY-MM-DDTHH:mm:ssZ.
func serviceTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
