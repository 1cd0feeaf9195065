package identity

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bridgeerrors "builderbridge/internal/errors"
)

// FileName is the persistent identity file, kept directly under the Builder
// data directory so both the IDE extension and the CLI find it.
const FileName = "cli-user-id.json"

// Record is the on-disk identity document.
type Record struct {
	CLIUserID string    `json:"cliUserId"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// Path returns the identity file location under the given home directory.
func Path(home string) string {
	return filepath.Join(home, ".builder", FileName)
}

// loadRecord reads and validates the identity file. Unreadable files come
// back as filesystem errors, undecodable or incomplete ones as schema errors.
func loadRecord(readFile func(string) ([]byte, error), path string) (Record, error) {
	data, err := readFile(path)
	if err != nil {
		return Record{}, bridgeerrors.NewFilesystem(path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, bridgeerrors.NewSchema(path, err)
	}
	if rec.CLIUserID == "" {
		return Record{}, bridgeerrors.NewSchema(path, errors.New("cliUserId missing"))
	}
	return rec, nil
}

// saveRecord writes the identity document, creating the data directory as
// needed. The file stays owner-only readable.
func saveRecord(path string, rec Record) error {
	encoded, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return bridgeerrors.NewFilesystem(path, err)
	}
	encoded = append(encoded, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return bridgeerrors.NewFilesystem(path, err)
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return bridgeerrors.NewFilesystem(path, err)
	}
	return nil
}

// removeRecord deletes the identity file. A file that is already gone is
// not an error.
func removeRecord(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return bridgeerrors.NewFilesystem(path, err)
	}
	return nil
}
