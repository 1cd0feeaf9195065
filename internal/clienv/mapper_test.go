package clienv

import (
	"os"
	"path/filepath"
	"testing"

	"builderbridge/internal/cliconfig"
	"builderbridge/internal/settings"
)

func builderSettings() *settings.ProviderSettings {
	return &settings.ProviderSettings{
		APIProvider:           cliconfig.ProviderKilocode,
		BuilderToken:          "tok-live",
		BuilderModel:          "anthropic/claude-sonnet-4",
		BuilderOrganizationID: "org-42",
	}
}

func writeCLIConfig(t *testing.T, home, body string) string {
	t.Helper()
	path := cliconfig.DefaultPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestBuildOverridesNoCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    *settings.ProviderSettings
	}{
		{name: "nil settings", s: nil},
		{name: "non-kilocode provider", s: &settings.ProviderSettings{APIProvider: "anthropic", APIKey: "sk-x"}},
		{name: "empty token", s: &settings.ProviderSettings{APIProvider: cliconfig.ProviderKilocode, BuilderToken: ""}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewMapper().BuildOverrides(tt.s, map[string]string{cliconfig.EnvHome: t.TempDir()})
			if len(got) != 0 {
				t.Fatalf("expected empty override map, got %v", got)
			}
		})
	}
}

func TestBuildOverridesReusesExistingEntry(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	writeCLIConfig(t, home, `{
		"version": 1,
		"provider": "work",
		"providers": [
			{"id": "byok", "provider": "anthropic", "apiKey": "sk-old"},
			{"id": "work", "provider": "kilocode", "builderToken": "stale", "builderModel": "m-old", "builderOrganizationId": "org-old"}
		]
	}`)

	got := NewMapper().BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: home})

	if got[cliconfig.EnvProviderSelector] != "work" {
		t.Fatalf("selector = %q, want work", got[cliconfig.EnvProviderSelector])
	}
	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("token = %q, want tok-live", got[cliconfig.EnvBuilderToken])
	}
	if len(got) != 2 {
		t.Fatalf("switch-to-existing-entry mode must emit selector and token only, got %v", got)
	}
}

func TestBuildOverridesEnvConfigWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	got := NewMapper().BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: home})

	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("token = %q, want tok-live", got[cliconfig.EnvBuilderToken])
	}
	if got[cliconfig.EnvBuilderModel] != "anthropic/claude-sonnet-4" {
		t.Fatalf("model = %q", got[cliconfig.EnvBuilderModel])
	}
	if got[cliconfig.EnvBuilderOrganizationID] != "org-42" {
		t.Fatalf("organization = %q", got[cliconfig.EnvBuilderOrganizationID])
	}
	if _, ok := got[cliconfig.EnvHome]; ok {
		t.Fatalf("no home redirect expected when no config exists, got %v", got)
	}
	if _, ok := got[cliconfig.EnvUserProfile]; ok {
		t.Fatalf("no userprofile redirect expected when no config exists, got %v", got)
	}
}

func TestBuildOverridesRedirectWhenEntryMissing(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	writeCLIConfig(t, home, `{
		"version": 1,
		"provider": "byok",
		"providers": [{"id": "byok", "provider": "anthropic", "apiKey": "sk-old"}]
	}`)

	got := NewMapper().BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: home})

	if got[cliconfig.EnvBuilderToken] != "tok-live" || got[cliconfig.EnvBuilderModel] != "anthropic/claude-sonnet-4" {
		t.Fatalf("env-config credentials missing: %v", got)
	}
	redirected := got[cliconfig.EnvHome]
	if redirected == "" || redirected == home {
		t.Fatalf("expected home redirect distinct from %q, got %q", home, redirected)
	}
	if got[cliconfig.EnvUserProfile] != redirected {
		t.Fatalf("USERPROFILE must match HOME redirect, got %v", got)
	}
	want := filepath.Join(home, ".builder", "env-home")
	if redirected != want {
		t.Fatalf("redirect = %q, want %q", redirected, want)
	}
}

func TestBuildOverridesRedirectWhenConfigCorrupt(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	writeCLIConfig(t, home, `{"providers": [`)

	got := NewMapper().BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: home})

	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("env-config credentials missing: %v", got)
	}
	if got[cliconfig.EnvHome] == "" {
		t.Fatalf("corrupt config still counts as an existing config; redirect expected, got %v", got)
	}
}

func TestBuildOverridesRedirectWhenConfigUnreadable(t *testing.T) {
	t.Parallel()

	home := "/home/locked"
	mapper := NewMapper(WithFileReader(func(string) ([]byte, error) {
		return nil, os.ErrPermission
	}))

	got := mapper.BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: home})

	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("env-config credentials missing: %v", got)
	}
	if got[cliconfig.EnvHome] != filepath.Join(home, ".builder", "env-home") {
		t.Fatalf("permission failure must keep the redirect, got %v", got)
	}
}

func TestBuildOverridesNeverEmitsUnrelatedKeys(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	env := map[string]string{
		cliconfig.EnvHome: home,
		"PATH":            "/usr/bin",
		"SHELL":           "/bin/zsh",
		"OPENAI_API_KEY":  "sk-unrelated",
	}

	got := NewMapper().BuildOverrides(builderSettings(), env)

	allowed := map[string]bool{
		cliconfig.EnvProviderSelector:      true,
		cliconfig.EnvBuilderToken:          true,
		cliconfig.EnvBuilderModel:          true,
		cliconfig.EnvBuilderOrganizationID: true,
		cliconfig.EnvHome:                  true,
		cliconfig.EnvUserProfile:           true,
	}
	for key := range got {
		if !allowed[key] {
			t.Fatalf("unexpected key %q in override map %v", key, got)
		}
	}
	if _, ok := got["PATH"]; ok {
		t.Fatal("process env keys must never pass through")
	}
}

func TestBuildOverridesUserProfileHome(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	writeCLIConfig(t, home, `{
		"providers": [{"id": "cloud", "provider": "kilocode", "builderToken": "stale"}]
	}`)

	got := NewMapper().BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvUserProfile: home})

	if got[cliconfig.EnvProviderSelector] != "cloud" {
		t.Fatalf("USERPROFILE home not honored: %v", got)
	}
}

func TestBuildOverridesOmitsOrganizationWhenUnset(t *testing.T) {
	t.Parallel()

	s := builderSettings()
	s.BuilderOrganizationID = ""

	got := NewMapper().BuildOverrides(s, map[string]string{cliconfig.EnvHome: t.TempDir()})

	if _, ok := got[cliconfig.EnvBuilderOrganizationID]; ok {
		t.Fatalf("organization override must be omitted when unset, got %v", got)
	}
	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("token missing: %v", got)
	}
}

func TestBuildOverridesPackageShortcut(t *testing.T) {
	t.Parallel()

	got := BuildOverrides(builderSettings(), map[string]string{cliconfig.EnvHome: t.TempDir()}, nil, nil)

	if got[cliconfig.EnvBuilderToken] != "tok-live" {
		t.Fatalf("one-shot form must behave like a configured mapper, got %v", got)
	}
}
