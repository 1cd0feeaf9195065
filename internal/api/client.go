// Package api is the HTTP client for the Builder backend. It covers the four
// endpoints the integration layer consumes: default-model resolution, the
// balance probe, the profile fetch, and organization mode definitions.
//
// Nothing in this package retries: every failure is classified, logged,
// reported, and degraded exactly once at the calling component's boundary.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/httpclient"
	"builderbridge/internal/logging"
	"builderbridge/internal/settings"
	"builderbridge/internal/telemetry"
)

// DefaultBaseURL is the production Builder API root.
const DefaultBaseURL = "https://builder.codes/api"

// FallbackModelID is served whenever the backend cannot provide a usable
// default model id.
const FallbackModelID = "anthropic/claude-sonnet-4"

// Builder-specific request headers.
const (
	HeaderOrganizationID = "X-Builder-Organization-Id"
	HeaderTester         = "X-Builder-Tester"

	testerSuppressValue = "suppress"
)

// Reporter receives fire-and-forget degradation reports. telemetry.Recorder
// implements it; tests inject fakes.
type Reporter interface {
	ReportError(ctx context.Context, event string, properties map[string]any)
}

// Client talks to the Builder backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	reporter   Reporter
	now        func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient injects the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger supplies the debug logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithReporter wires telemetry reporting for degradations.
func WithReporter(reporter Reporter) Option {
	return func(c *Client) {
		c.reporter = reporter
	}
}

// WithNow overrides the clock, used by tests exercising the
// tester-suppression window.
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient returns a Client with the given options applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		logger:  logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.New(0, c.logger)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON issues an authorized GET against path and decodes the response
// body into out. Failures come back wrapped in the degradation taxonomy.
func (c *Client) getJSON(ctx context.Context, path, token string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return bridgeerrors.NewTransport(path, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bridgeerrors.NewTransport(path, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !bridgeerrors.IsSuccessStatus(resp.StatusCode) {
		return bridgeerrors.NewTransport(path, resp.StatusCode, nil)
	}

	body, err := httpclient.ReadAllWithLimit(resp.Body, httpclient.DefaultBodyLimit)
	if err != nil {
		return bridgeerrors.NewTransport(path, 0, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return bridgeerrors.NewSchema(path, err)
	}
	return nil
}

// testerHeader returns the headers shared by the defaults and modes
// endpoints: the tester-suppression marker while the acknowledged window is
// active, nothing otherwise.
func (c *Client) testerHeader(providerSettings *settings.ProviderSettings) http.Header {
	header := http.Header{}
	if providerSettings.TesterSuppressionActive(c.now()) {
		header.Set(HeaderTester, testerSuppressValue)
	}
	return header
}

// report forwards a degradation to telemetry when a reporter is wired.
func (c *Client) report(ctx context.Context, event, path string, err error, extra map[string]any) {
	if c.reporter == nil {
		return
	}
	props := map[string]any{
		telemetry.PropertyErrorCategory: string(bridgeerrors.Classify(err)),
		telemetry.PropertyEndpoint:      path,
	}
	for key, value := range extra {
		props[key] = value
	}
	c.reporter.ReportError(ctx, event, props)
}
