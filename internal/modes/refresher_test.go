package modes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"builderbridge/internal/api"
	"builderbridge/internal/settings"
	"builderbridge/internal/telemetry"
)

type fakeFetcher struct {
	modes    []api.OrganizationMode
	err      error
	calls    int
	gotToken string
	gotOrgID string
}

func (f *fakeFetcher) FetchOrganizationModes(_ context.Context, token, orgID string, _ *settings.ProviderSettings) ([]api.OrganizationMode, error) {
	f.calls++
	f.gotToken = token
	f.gotOrgID = orgID
	return f.modes, f.err
}

type fakeStore struct {
	mergeErr error
	listErr  error
	merges   [][]api.OrganizationMode
	list     []api.OrganizationMode
}

func (f *fakeStore) MergeOrganizationModes(incoming []api.OrganizationMode) error {
	f.merges = append(f.merges, incoming)
	return f.mergeErr
}

func (f *fakeStore) List() ([]api.OrganizationMode, error) {
	return f.list, f.listErr
}

type fakeState struct {
	setErr error
	sets   [][]api.OrganizationMode
}

func (f *fakeState) SetCustomModes(modes []api.OrganizationMode) error {
	f.sets = append(f.sets, modes)
	return f.setErr
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) ReportError(_ context.Context, event string, _ map[string]any) {
	r.events = append(r.events, event)
}

func configuredSettings() *settings.ProviderSettings {
	return &settings.ProviderSettings{
		APIProvider:           "kilocode",
		BuilderToken:          "tok-live",
		BuilderOrganizationID: "org-42",
	}
}

func TestRefreshFetchesMergesAndPersists(t *testing.T) {
	fetched := []api.OrganizationMode{{Slug: "reviewer", Name: "Reviewer"}}
	merged := []api.OrganizationMode{
		{Slug: "personal", Name: "Personal"},
		{Slug: "reviewer", Name: "Reviewer", Source: api.ModeSourceOrganization},
	}
	fetcher := &fakeFetcher{modes: fetched}
	store := &fakeStore{list: merged}
	state := &fakeState{}
	r := NewRefresher(fetcher, store, state)

	r.OnSettingsSaved(context.Background(), configuredSettings())

	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, "tok-live", fetcher.gotToken)
	require.Equal(t, "org-42", fetcher.gotOrgID)
	require.Equal(t, [][]api.OrganizationMode{fetched}, store.merges)
	require.Equal(t, [][]api.OrganizationMode{merged}, state.sets, "the persisted list comes from the store, not the fetch")
}

func TestOnStartupRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{}
	state := &fakeState{}
	r := NewRefresher(fetcher, store, state)

	r.OnStartup(context.Background(), configuredSettings())

	require.Equal(t, 1, fetcher.calls)
	require.Len(t, state.sets, 1)
}

func TestRefreshSkipsWithoutCredentials(t *testing.T) {
	tests := []struct {
		name             string
		providerSettings *settings.ProviderSettings
	}{
		{name: "nil settings", providerSettings: nil},
		{name: "no token", providerSettings: &settings.ProviderSettings{BuilderOrganizationID: "org-42"}},
		{name: "no organization", providerSettings: &settings.ProviderSettings{BuilderToken: "tok-live"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			store := &fakeStore{}
			state := &fakeState{}
			r := NewRefresher(fetcher, store, state)

			r.OnSettingsSaved(context.Background(), tc.providerSettings)

			require.Zero(t, fetcher.calls)
			require.Empty(t, store.merges)
			require.Empty(t, state.sets)
		})
	}
}

func TestRefreshSwallowsFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	store := &fakeStore{}
	state := &fakeState{}
	reporter := &recordingReporter{}
	r := NewRefresher(fetcher, store, state, WithReporter(reporter))

	r.OnSettingsSaved(context.Background(), configuredSettings())

	require.Empty(t, store.merges, "a failed fetch must not touch the store")
	require.Empty(t, state.sets)
	require.Equal(t, []string{telemetry.EventOrganizationModesRefreshFailed}, reporter.events)
}

func TestRefreshSwallowsMergeFailure(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{mergeErr: errors.New("document corrupt")}
	state := &fakeState{}
	reporter := &recordingReporter{}
	r := NewRefresher(fetcher, store, state, WithReporter(reporter))

	r.OnSettingsSaved(context.Background(), configuredSettings())

	require.Empty(t, state.sets, "a failed merge must not overwrite global state")
	require.Equal(t, []string{telemetry.EventOrganizationModesRefreshFailed}, reporter.events)
}

func TestRefreshSwallowsPersistFailure(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{}
	state := &fakeState{setErr: errors.New("disk full")}
	reporter := &recordingReporter{}
	r := NewRefresher(fetcher, store, state, WithReporter(reporter))

	r.OnSettingsSaved(context.Background(), configuredSettings())

	require.Equal(t, []string{telemetry.EventOrganizationModesRefreshFailed}, reporter.events)
}
