// Package modes keeps organization-managed mode definitions in sync with
// the local custom-mode state the Builder CLI reads. A refresh runs after
// every provider-settings save and once at startup; every failure inside a
// refresh is logged, reported, and swallowed so the surrounding sequence
// never stalls.
package modes

import (
	"context"

	"builderbridge/internal/api"
	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/logging"
	"builderbridge/internal/settings"
	"builderbridge/internal/telemetry"
)

// Fetcher lists the mode definitions an organization manages. api.Client
// implements it.
type Fetcher interface {
	FetchOrganizationModes(ctx context.Context, token, orgID string, providerSettings *settings.ProviderSettings) ([]api.OrganizationMode, error)
}

// Store is the local custom-mode store organization modes merge into.
type Store interface {
	MergeOrganizationModes(incoming []api.OrganizationMode) error
	List() ([]api.OrganizationMode, error)
}

// GlobalState receives the merged mode list after every refresh.
type GlobalState interface {
	SetCustomModes(modes []api.OrganizationMode) error
}

// Refresher drives the fetch-merge-persist cycle.
type Refresher struct {
	fetcher  Fetcher
	store    Store
	state    GlobalState
	logger   logging.Logger
	reporter api.Reporter
}

// Option customises a Refresher.
type Option func(*Refresher)

// WithLogger supplies the debug logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Refresher) {
		r.logger = logging.OrNop(logger)
	}
}

// WithReporter wires telemetry reporting for failed refreshes.
func WithReporter(reporter api.Reporter) Option {
	return func(r *Refresher) {
		r.reporter = reporter
	}
}

// NewRefresher builds a Refresher over the given collaborators.
func NewRefresher(fetcher Fetcher, store Store, state GlobalState, opts ...Option) *Refresher {
	r := &Refresher{
		fetcher: fetcher,
		store:   store,
		state:   state,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnSettingsSaved runs a refresh after the user saved provider settings.
// Without a Builder token and organization id there is nothing to fetch and
// the call is a silent no-op.
func (r *Refresher) OnSettingsSaved(ctx context.Context, providerSettings *settings.ProviderSettings) {
	r.refresh(ctx, providerSettings)
}

// OnStartup runs the initial refresh for already-configured installations.
func (r *Refresher) OnStartup(ctx context.Context, providerSettings *settings.ProviderSettings) {
	r.refresh(ctx, providerSettings)
}

func (r *Refresher) refresh(ctx context.Context, providerSettings *settings.ProviderSettings) {
	token := providerSettings.Token()
	orgID := providerSettings.OrganizationID()
	if token == "" || orgID == "" {
		r.logger.Debug("organization modes refresh skipped: token or organization id not configured")
		return
	}

	fetched, err := r.fetcher.FetchOrganizationModes(ctx, token, orgID, providerSettings)
	if err != nil {
		r.degrade(ctx, orgID, "fetch", err)
		return
	}
	if err := r.store.MergeOrganizationModes(fetched); err != nil {
		r.degrade(ctx, orgID, "merge", err)
		return
	}
	merged, err := r.store.List()
	if err != nil {
		r.degrade(ctx, orgID, "list", err)
		return
	}
	if err := r.state.SetCustomModes(merged); err != nil {
		r.degrade(ctx, orgID, "persist", err)
		return
	}
	r.logger.Debug("organization modes refreshed: %d from organization %s, %d total", len(fetched), orgID, len(merged))
}

func (r *Refresher) degrade(ctx context.Context, orgID, phase string, err error) {
	r.logger.Warn("organization modes refresh failed during %s (%s): %v", phase, bridgeerrors.Classify(err), err)
	if r.reporter == nil {
		return
	}
	r.reporter.ReportError(ctx, telemetry.EventOrganizationModesRefreshFailed, map[string]any{
		telemetry.PropertyErrorCategory:  string(bridgeerrors.Classify(err)),
		telemetry.PropertyOrganizationID: orgID,
	})
}
