// Package clienv computes the environment-variable overrides the IDE
// extension injects into a spawned Builder CLI process so the CLI picks up
// the extension's Builder credentials without the user re-authenticating.
package clienv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"builderbridge/internal/cliconfig"
	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/logging"
	"builderbridge/internal/settings"
)

// envHomeDirName is the dedicated home directory used in env-config mode so
// the spawned CLI does not read or write the user's real CLI configuration.
const envHomeDirName = "env-home"

// Mapper decides the override map for one spawn. All collaborators are
// injectable; the zero configuration reads the real filesystem and logs
// nowhere.
type Mapper struct {
	readFile func(string) ([]byte, error)
	logger   logging.Logger
	debug    logging.Logger
}

// Option customises a Mapper.
type Option func(*Mapper)

// WithFileReader injects a custom reader, used primarily for tests.
func WithFileReader(reader func(string) ([]byte, error)) Option {
	return func(m *Mapper) {
		if reader != nil {
			m.readFile = reader
		}
	}
}

// WithLogger supplies the main logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Mapper) {
		m.logger = logging.OrNop(logger)
	}
}

// WithDebugLogger supplies the verbose decision-trace logger.
func WithDebugLogger(logger logging.Logger) Option {
	return func(m *Mapper) {
		m.debug = logging.OrNop(logger)
	}
}

// NewMapper returns a Mapper with the given options applied.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{
		readFile: os.ReadFile,
		logger:   logging.Nop(),
		debug:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BuildOverrides is a convenience wrapper over a one-shot Mapper.
func BuildOverrides(s *settings.ProviderSettings, env map[string]string, logger, debug logging.Logger) map[string]string {
	return NewMapper(WithLogger(logger), WithDebugLogger(debug)).BuildOverrides(s, env)
}

// BuildOverrides returns the environment overrides for a CLI spawn.
//
// With no Builder credentials in the settings the map is empty. With a token
// present the mapper probes <home>/.builder/cli/config.json: an existing
// kilocode entry is reused (selector + token only); otherwise the overrides
// carry the credentials directly, plus a home redirect when a config file
// exists at the original location but lacks a kilocode entry. The mapper
// never fails; every filesystem or parse problem degrades to env-config
// mode and is logged at debug level.
func (m *Mapper) BuildOverrides(s *settings.ProviderSettings, env map[string]string) map[string]string {
	overrides := map[string]string{}

	if s == nil || s.Provider() != cliconfig.ProviderKilocode || s.Token() == "" {
		m.debug.Debug("provider settings carry no builder token (provider=%q); no CLI overrides", s.Provider())
		return overrides
	}

	home := cliconfig.HomeFromEnv(env)
	if home == "" {
		m.logger.Debug("no HOME or USERPROFILE in process env; using env-config mode without redirect")
		m.applyEnvConfig(overrides, s)
		return overrides
	}

	path := cliconfig.DefaultPath(home)
	data, err := m.readFile(path)
	switch {
	case err == nil:
		entry, found, parseErr := findKilocodeEntry(data, path)
		if parseErr != nil {
			m.logger.Debug("CLI config at %s is unusable (%s): %v; using env-config mode with home redirect",
				path, bridgeerrors.Classify(parseErr), parseErr)
		}
		if found {
			overrides[cliconfig.EnvProviderSelector] = entry.ID
			overrides[cliconfig.EnvBuilderToken] = s.Token()
			m.debug.Debug("reusing CLI provider entry %q from %s", entry.ID, path)
			return overrides
		}
		if parseErr == nil {
			m.debug.Debug("CLI config at %s has no %s entry; using env-config mode with home redirect",
				path, cliconfig.ProviderKilocode)
		}
		m.applyEnvConfig(overrides, s)
		m.applyHomeRedirect(overrides, home)

	case errors.Is(err, fs.ErrNotExist):
		m.debug.Debug("no CLI config at %s; using env-config mode", path)
		m.applyEnvConfig(overrides, s)

	default:
		// The file exists but cannot be read, so the redirect still applies.
		m.logger.Debug("reading CLI config at %s failed (%s): %v; using env-config mode with home redirect",
			path, bridgeerrors.Classify(err), err)
		m.applyEnvConfig(overrides, s)
		m.applyHomeRedirect(overrides, home)
	}

	return overrides
}

func (m *Mapper) applyEnvConfig(overrides map[string]string, s *settings.ProviderSettings) {
	overrides[cliconfig.EnvBuilderToken] = s.Token()
	overrides[cliconfig.EnvBuilderModel] = s.Model()
	if org := s.OrganizationID(); org != "" {
		overrides[cliconfig.EnvBuilderOrganizationID] = org
	}
}

func (m *Mapper) applyHomeRedirect(overrides map[string]string, home string) {
	redirected := filepath.Join(cliconfig.DataDir(home), envHomeDirName)
	overrides[cliconfig.EnvHome] = redirected
	overrides[cliconfig.EnvUserProfile] = redirected
	m.debug.Debug("redirecting CLI home to %s", redirected)
}

func findKilocodeEntry(data []byte, source string) (cliconfig.ProviderEntry, bool, error) {
	cfg, err := cliconfig.Parse(data, source)
	if err != nil {
		return cliconfig.ProviderEntry{}, false, err
	}
	entry, ok := cfg.FindByProviderTag(cliconfig.ProviderKilocode)
	return entry, ok, nil
}
