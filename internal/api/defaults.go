package api

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/settings"
	"builderbridge/internal/telemetry"
)

const (
	// defaultFetchTimeout bounds a single defaults lookup. Anything slower
	// degrades to the fallback model.
	defaultFetchTimeout = 5 * time.Second

	// resolverCacheSize bounds the memo so long-lived hosts cannot grow it
	// without limit across token or organization changes.
	resolverCacheSize = 128
)

type defaultsResponse struct {
	DefaultModel string `json:"defaultModel"`
}

// ModelResolver answers "which model should this account use by default".
// Results are memoized per (token, organization, suppression-window) key and
// concurrent lookups for the same key share a single request.
type ModelResolver struct {
	client  *Client
	cache   *lru.Cache[string, string]
	group   singleflight.Group
	timeout time.Duration
}

// NewModelResolver returns a resolver backed by client.
func NewModelResolver(client *Client) *ModelResolver {
	cache, _ := lru.New[string, string](resolverCacheSize)
	return &ModelResolver{
		client:  client,
		cache:   cache,
		timeout: defaultFetchTimeout,
	}
}

// GetDefault resolves the default model id for the given credentials. It
// never fails and never blocks past the fetch timeout: missing tokens,
// transport problems, malformed payloads and slow backends all yield
// FallbackModelID. The resolved value, fallback included, is memoized so
// repeated calls with the same inputs stay off the network.
func (r *ModelResolver) GetDefault(ctx context.Context, token, orgID string, providerSettings *settings.ProviderSettings) string {
	if token == "" {
		return FallbackModelID
	}

	key := resolverKey(token, orgID, providerSettings.SuppressionExpiry())
	if model, ok := r.cache.Get(key); ok {
		return model
	}

	result, _, _ := r.group.Do(key, func() (any, error) {
		// A concurrent flight may have filled the cache between our
		// lookup and joining the group.
		if model, ok := r.cache.Get(key); ok {
			return model, nil
		}
		model := r.fetch(ctx, token, orgID, providerSettings)
		r.cache.Add(key, model)
		return model, nil
	})

	model, ok := result.(string)
	if !ok || model == "" {
		return FallbackModelID
	}
	return model
}

// fetch performs the actual lookup and absorbs every failure into the
// fallback model.
func (r *ModelResolver) fetch(ctx context.Context, token, orgID string, providerSettings *settings.ProviderSettings) string {
	path := "/defaults"
	if orgID != "" {
		path = "/organizations/" + url.PathEscape(orgID) + "/defaults"
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var payload defaultsResponse
	if err := r.client.getJSON(fetchCtx, path, token, r.client.testerHeader(providerSettings), &payload); err != nil {
		r.degrade(ctx, path, orgID, err)
		return FallbackModelID
	}
	if payload.DefaultModel == "" {
		err := bridgeerrors.NewSchema(path, errors.New("defaultModel missing or empty"))
		r.degrade(ctx, path, orgID, err)
		return FallbackModelID
	}
	return payload.DefaultModel
}

func (r *ModelResolver) degrade(ctx context.Context, path, orgID string, err error) {
	r.client.logger.Debug("default model lookup failed (%s): %v; using %s", bridgeerrors.Classify(err), err, FallbackModelID)
	extra := map[string]any{}
	if orgID != "" {
		extra[telemetry.PropertyOrganizationID] = orgID
	}
	r.client.report(ctx, telemetry.EventDefaultModelFetchFailed, path, err, extra)
}

// resolverKey builds the memo key. The suppression expiry participates so a
// freshly acknowledged tester warning invalidates prior entries.
func resolverKey(token, orgID string, suppressionExpiry int64) string {
	return strings.Join([]string{token, orgID, strconv.FormatInt(suppressionExpiry, 10)}, "\x1f")
}
