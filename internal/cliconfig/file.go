package cliconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	bridgeerrors "builderbridge/internal/errors"
)

const (
	dataDirName    = ".builder"
	cliDirName     = "cli"
	configFileName = "config.json"
)

// DefaultPath returns the CLI config location under the given home directory:
// <home>/.builder/cli/config.json.
func DefaultPath(home string) string {
	return filepath.Join(home, dataDirName, cliDirName, configFileName)
}

// DataDir returns the Builder data directory under the given home directory.
func DataDir(home string) string {
	return filepath.Join(home, dataDirName)
}

// Parse decodes a config document. The source is used in error messages only.
func Parse(data []byte, source string) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, bridgeerrors.NewSchema(source, err)
	}
	return cfg, nil
}

// Load reads and decodes the config document at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, bridgeerrors.NewFilesystem(path, err)
	}
	return Parse(data, path)
}

// Save writes the config document to path, creating parent directories as
// needed. The file is written with a trailing newline and owner-only
// permissions since entries carry credentials.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return bridgeerrors.NewSchema(path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return bridgeerrors.NewFilesystem(filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return bridgeerrors.NewFilesystem(path, err)
	}
	return nil
}
