package modes

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"builderbridge/internal/api"
	bridgeerrors "builderbridge/internal/errors"
)

// StoreFileName is the custom-modes document under the Builder data
// directory. Users edit this file by hand; organization entries are marked
// with a source tag so a later refresh can tell them apart.
const StoreFileName = "custom-modes.yaml"

type modesDocument struct {
	CustomModes []api.OrganizationMode `yaml:"customModes"`
}

// FileStore is the YAML-backed custom-mode store.
type FileStore struct {
	mu       sync.Mutex
	path     string
	readFile func(string) ([]byte, error)
}

// StorePath returns the custom-modes file location under home.
func StorePath(home string) string {
	return filepath.Join(home, ".builder", StoreFileName)
}

// NewFileStore returns a store over the custom-modes file for home.
func NewFileStore(home string) *FileStore {
	return &FileStore{
		path:     StorePath(home),
		readFile: os.ReadFile,
	}
}

// List returns every stored mode in document order. A missing file is an
// empty store, not an error.
func (s *FileStore) List() ([]api.OrganizationMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return doc.CustomModes, nil
}

// MergeOrganizationModes folds the fetched organization modes into the
// document. Same-slug entries are replaced in place, organization entries
// absent from the fetch are dropped, user-authored entries survive, and new
// organization modes append in server order. A corrupt document is left
// untouched and reported as a schema error.
func (s *FileStore) MergeOrganizationModes(incoming []api.OrganizationMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	bySlug := make(map[string]api.OrganizationMode, len(incoming))
	for _, mode := range incoming {
		mode.Source = api.ModeSourceOrganization
		bySlug[mode.Slug] = mode
	}

	merged := make([]api.OrganizationMode, 0, len(doc.CustomModes)+len(incoming))
	replaced := make(map[string]bool, len(incoming))
	for _, existing := range doc.CustomModes {
		if replacement, ok := bySlug[existing.Slug]; ok {
			merged = append(merged, replacement)
			replaced[existing.Slug] = true
			continue
		}
		if existing.Source == api.ModeSourceOrganization {
			// No longer served by the organization.
			continue
		}
		merged = append(merged, existing)
	}
	for _, mode := range incoming {
		if !replaced[mode.Slug] {
			mode.Source = api.ModeSourceOrganization
			merged = append(merged, mode)
		}
	}

	return s.save(modesDocument{CustomModes: merged})
}

func (s *FileStore) load() (modesDocument, error) {
	data, err := s.readFile(s.path)
	if err != nil {
		return modesDocument{}, bridgeerrors.NewFilesystem(s.path, err)
	}
	var doc modesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return modesDocument{}, bridgeerrors.NewSchema(s.path, err)
	}
	return doc, nil
}

func (s *FileStore) save(doc modesDocument) error {
	encoded, err := yaml.Marshal(doc)
	if err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return bridgeerrors.NewFilesystem(s.path, err)
	}
	return nil
}
