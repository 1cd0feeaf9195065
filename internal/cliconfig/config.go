// Package cliconfig models the Builder CLI configuration document and the
// environment-variable override scheme the CLI honors when it is spawned by
// the IDE extension.
package cliconfig

import "builderbridge/internal/settings"

// ProviderKilocode tags provider entries backed by the Builder cloud. The
// historical tag is kept for compatibility with configs written by earlier
// releases.
const ProviderKilocode = "kilocode"

// Provider-selector and override variable names. BUILDER_-prefixed variables
// target kilocode entries, PROVIDER_-prefixed ones target every other
// provider variant; the selector names the entry the overrides apply to.
const (
	EnvProviderSelector = "BUILDER_PROVIDER"

	BuilderPrefix            = "BUILDER_"
	EnvBuilderToken          = "BUILDER_TOKEN"
	EnvBuilderModel          = "BUILDER_MODEL"
	EnvBuilderOrganizationID = "BUILDER_ORGANIZATION_ID"

	GenericPrefix     = "PROVIDER_"
	EnvGenericAPIKey  = "PROVIDER_API_KEY"
	EnvGenericModel   = "PROVIDER_MODEL"
	EnvGenericBaseURL = "PROVIDER_BASE_URL"
)

// Home-directory variables the Provider-Env Mapper may redirect in fallback
// mode. Both are set so the CLI behaves the same on POSIX and Windows.
const (
	EnvHome        = "HOME"
	EnvUserProfile = "USERPROFILE"
)

// Config is the CLI's config.json document. Display fields the integration
// layer does not interpret (mode, theme) round-trip untouched.
type Config struct {
	Version   int             `json:"version,omitempty"`
	Mode      string          `json:"mode,omitempty"`
	Telemetry bool            `json:"telemetry,omitempty"`
	Provider  string          `json:"provider,omitempty"`
	Providers []ProviderEntry `json:"providers,omitempty"`
	Theme     string          `json:"theme,omitempty"`
}

// ProviderEntry is one named credential/model configuration. The provider tag
// discriminates which field family is meaningful: kilocode entries use the
// builder* fields, every other variant uses apiKey/apiModelId/baseUrl.
type ProviderEntry struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`

	BuilderToken          string `json:"builderToken,omitempty"`
	BuilderModel          string `json:"builderModel,omitempty"`
	BuilderOrganizationID string `json:"builderOrganizationId,omitempty"`

	APIKey     string `json:"apiKey,omitempty"`
	APIModelID string `json:"apiModelId,omitempty"`
	BaseURL    string `json:"baseUrl,omitempty"`
}

// IsKilocode reports whether the entry is a Builder-cloud entry.
func (e ProviderEntry) IsKilocode() bool {
	return e.Provider == ProviderKilocode
}

// Settings converts the entry into the provider-settings shape the rest of
// the integration layer consumes. The tester-suppression window lives in IDE
// state, not in the CLI config, so it is always zero here.
func (e ProviderEntry) Settings() settings.ProviderSettings {
	return settings.ProviderSettings{
		APIProvider:           e.Provider,
		BuilderToken:          e.BuilderToken,
		BuilderModel:          e.BuilderModel,
		BuilderOrganizationID: e.BuilderOrganizationID,
		APIKey:                e.APIKey,
		APIModelID:            e.APIModelID,
		BaseURL:               e.BaseURL,
	}
}

// FindProvider returns the entry with the given id.
func (c Config) FindProvider(id string) (ProviderEntry, bool) {
	for _, entry := range c.Providers {
		if entry.ID == id {
			return entry, true
		}
	}
	return ProviderEntry{}, false
}

// FindByProviderTag returns the first entry carrying the given provider tag.
func (c Config) FindByProviderTag(tag string) (ProviderEntry, bool) {
	for _, entry := range c.Providers {
		if entry.Provider == tag {
			return entry, true
		}
	}
	return ProviderEntry{}, false
}

// ActiveProvider returns the entry the top-level provider field references.
// A dangling or empty reference yields ok=false; callers treat that as a
// no-op, not an error.
func (c Config) ActiveProvider() (ProviderEntry, bool) {
	if c.Provider == "" {
		return ProviderEntry{}, false
	}
	return c.FindProvider(c.Provider)
}

// Clone returns a copy that shares no providers storage with the receiver.
func (c Config) Clone() Config {
	out := c
	if c.Providers != nil {
		out.Providers = append([]ProviderEntry(nil), c.Providers...)
	}
	return out
}
