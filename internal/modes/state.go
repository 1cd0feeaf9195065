package modes

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"builderbridge/internal/api"
	bridgeerrors "builderbridge/internal/errors"
)

// StateFileName is the shared global-state document. Other Builder
// components keep their own keys in it, so updates read-modify-write the
// whole document and preserve everything they do not own.
const StateFileName = "global-state.json"

const stateCustomModesKey = "customModes"

// FileState is the JSON-backed GlobalState implementation.
type FileState struct {
	mu   sync.Mutex
	path string
}

// StatePath returns the global-state file location under home.
func StatePath(home string) string {
	return filepath.Join(home, ".builder", StateFileName)
}

// NewFileState returns a FileState over the global-state file for home.
func NewFileState(home string) *FileState {
	return &FileState{path: StatePath(home)}
}

// SetCustomModes replaces the stored custom-mode list, leaving every other
// key in the document as it was.
func (s *FileState) SetCustomModes(modes []api.OrganizationMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	encoded, err := json.Marshal(modes)
	if err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	doc[stateCustomModesKey] = encoded

	return s.save(doc)
}

// CustomModes returns the stored custom-mode list. A missing file or absent
// key reads as an empty list.
func (s *FileState) CustomModes() ([]api.OrganizationMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	raw, ok := doc[stateCustomModesKey]
	if !ok {
		return nil, nil
	}
	var modes []api.OrganizationMode
	if err := json.Unmarshal(raw, &modes); err != nil {
		return nil, bridgeerrors.NewSchema(s.path, err)
	}
	return modes, nil
}

func (s *FileState) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, bridgeerrors.NewFilesystem(s.path, err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, bridgeerrors.NewSchema(s.path, err)
	}
	return doc, nil
}

func (s *FileState) save(doc map[string]json.RawMessage) error {
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	encoded = append(encoded, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	return nil
}
