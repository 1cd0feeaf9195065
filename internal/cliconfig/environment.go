package cliconfig

import (
	"os"
	"strings"
)

// SnapshotProcessEnv returns a copy of the current process environment as a
// map. Callers may mutate the result freely; the Provider-Env Mapper and the
// override resolver both consume this shape.
func SnapshotProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

// HomeFromEnv resolves the home directory from an environment snapshot,
// preferring HOME and falling back to USERPROFILE. An empty string means no
// home is known.
func HomeFromEnv(env map[string]string) string {
	if home := env[EnvHome]; home != "" {
		return home
	}
	return env[EnvUserProfile]
}
