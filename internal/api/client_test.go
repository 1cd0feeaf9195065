package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type reportedEvent struct {
	name  string
	props map[string]any
}

type fakeReporter struct {
	mu     sync.Mutex
	events []reportedEvent
}

func (f *fakeReporter) ReportError(_ context.Context, event string, properties map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, reportedEvent{name: event, props: properties})
}

func (f *fakeReporter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		names = append(names, ev.name)
	}
	return names
}

func (f *fakeReporter) last() (reportedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return reportedEvent{}, false
	}
	return f.events[len(f.events)-1], true
}

// newTestClient wires a Client against an httptest server and captures
// telemetry in a fake reporter.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *fakeReporter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reporter := &fakeReporter{}
	client := NewClient(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithReporter(reporter),
	)
	return client, reporter
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient()

	require.Equal(t, DefaultBaseURL, client.BaseURL())
	require.NotNil(t, client.httpClient)
	require.NotNil(t, client.logger)
}

func TestWithBaseURLTrimsTrailingSlash(t *testing.T) {
	client := NewClient(WithBaseURL("https://example.test/api/ "))

	require.Equal(t, "https://example.test/api", client.BaseURL())
}

func TestWithBaseURLIgnoresEmpty(t *testing.T) {
	client := NewClient(WithBaseURL("  "))

	require.Equal(t, DefaultBaseURL, client.BaseURL())
}

func TestGetJSONSetsAuthorization(t *testing.T) {
	var gotAuth, gotAccept string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{}`))
	}))

	var out struct{}
	err := client.getJSON(context.Background(), "/defaults", "tok-1", nil, &out)

	require.NoError(t, err)
	require.Equal(t, "Bearer tok-1", gotAuth)
	require.Equal(t, "application/json", gotAccept)
}
