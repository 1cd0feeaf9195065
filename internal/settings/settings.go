// Package settings mirrors the provider-settings record the Builder IDE
// extension persists. Field names and JSON tags track the extension schema;
// this package stays free of behavior beyond nil-safe accessors so every
// integration component can accept a possibly-nil snapshot.
package settings

import "time"

// ProviderSettings is a snapshot of the active provider profile.
//
// Builder-cloud profiles carry the builder* fields; bring-your-own-key
// profiles carry apiKey/apiModelId/baseUrl instead. Unknown fields from newer
// extension versions are dropped on decode, which is fine for this layer.
type ProviderSettings struct {
	APIProvider string `json:"apiProvider,omitempty"`

	BuilderToken          string `json:"builderToken,omitempty"`
	BuilderModel          string `json:"builderModel,omitempty"`
	BuilderOrganizationID string `json:"builderOrganizationId,omitempty"`

	// TesterWarningsDisabledUntil is a unix-millisecond expiry; while it is
	// in the future, backend calls carry the tester-suppression header.
	TesterWarningsDisabledUntil int64 `json:"builderTesterWarningsDisabledUntil,omitempty"`

	APIKey     string `json:"apiKey,omitempty"`
	APIModelID string `json:"apiModelId,omitempty"`
	BaseURL    string `json:"baseUrl,omitempty"`
}

// Provider returns the provider tag, or "" for a nil snapshot.
func (s *ProviderSettings) Provider() string {
	if s == nil {
		return ""
	}
	return s.APIProvider
}

// Token returns the Builder cloud token, or "" for a nil snapshot.
func (s *ProviderSettings) Token() string {
	if s == nil {
		return ""
	}
	return s.BuilderToken
}

// Model returns the configured Builder model id, or "" for a nil snapshot.
func (s *ProviderSettings) Model() string {
	if s == nil {
		return ""
	}
	return s.BuilderModel
}

// OrganizationID returns the Builder organization id, or "" for a nil snapshot.
func (s *ProviderSettings) OrganizationID() string {
	if s == nil {
		return ""
	}
	return s.BuilderOrganizationID
}

// SuppressionExpiry returns the raw tester-suppression expiry in unix
// milliseconds, or 0 for a nil snapshot.
func (s *ProviderSettings) SuppressionExpiry() int64 {
	if s == nil {
		return 0
	}
	return s.TesterWarningsDisabledUntil
}

// TesterSuppressionActive reports whether the tester-suppression window is
// still open at the given instant.
func (s *ProviderSettings) TesterSuppressionActive(now time.Time) bool {
	if s == nil || s.TesterWarningsDisabledUntil <= 0 {
		return false
	}
	return s.TesterWarningsDisabledUntil > now.UnixMilli()
}
