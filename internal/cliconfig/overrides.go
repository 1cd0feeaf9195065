package cliconfig

import "strings"

// ApplyOverrides returns a copy of cfg with environment-variable overrides
// applied. It is pure: cfg and env are never mutated, and when env carries no
// recognized values the result is value-equal to cfg.
//
// Resolution order:
//  1. BUILDER_PROVIDER switches the top-level provider, but only when the
//     named entry exists; a dangling or empty selector leaves it unchanged.
//  2. Field overrides then apply to the (possibly just switched) active
//     entry, gated by its variant: BUILDER_* suffixes write kilocode fields,
//     PROVIDER_* suffixes write generic fields. Variables for the wrong
//     variant and unknown suffixes are ignored, as are empty values.
func ApplyOverrides(cfg Config, env map[string]string) Config {
	out := cfg

	if selected := env[EnvProviderSelector]; selected != "" {
		if _, ok := out.FindProvider(selected); ok {
			out.Provider = selected
		}
	}

	idx := -1
	for i, entry := range out.Providers {
		if entry.ID == out.Provider {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out
	}

	entry := out.Providers[idx]
	updated := entry
	if entry.IsKilocode() {
		for name, value := range env {
			if value == "" || !strings.HasPrefix(name, BuilderPrefix) {
				continue
			}
			switch strings.TrimPrefix(name, BuilderPrefix) {
			case "TOKEN":
				updated.BuilderToken = value
			case "MODEL":
				updated.BuilderModel = value
			case "ORGANIZATION_ID":
				updated.BuilderOrganizationID = value
			}
		}
	} else {
		for name, value := range env {
			if value == "" || !strings.HasPrefix(name, GenericPrefix) {
				continue
			}
			switch strings.TrimPrefix(name, GenericPrefix) {
			case "API_KEY":
				updated.APIKey = value
			case "MODEL":
				updated.APIModelID = value
			case "BASE_URL":
				updated.BaseURL = value
			}
		}
	}

	if updated == entry {
		return out
	}

	providers := append([]ProviderEntry(nil), out.Providers...)
	providers[idx] = updated
	out.Providers = providers
	return out
}
