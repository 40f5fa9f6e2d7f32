package feature

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// containerVersion guards the on-disk layout.
const containerVersion = 1

// containerExt keeps the historical extension so downstream tooling can
// glob for the same file names it always has.
const containerExt = ".h5"

type container struct {
	Version  int                `msgpack:"version"`
	Label    string             `msgpack:"label"`
	Features map[string]*record `msgpack:"features"`
}

// Store persists one feature container per utterance label inside a
// single directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed and returns a store rooted
// there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the container file for a label.
func (s *Store) Path(label string) string {
	return filepath.Join(s.dir, label+containerExt)
}

// Exists reports whether a container for the label is already on disk.
func (s *Store) Exists(label string) bool {
	_, err := os.Stat(s.Path(label))
	return err == nil
}

// Save writes the feature set's container. Map keys are encoded in
// sorted order so identical sets produce identical files. A partially
// written container is removed on error.
func (s *Store) Save(set *FeatureSet) error {
	if set.Label == "" {
		return fmt.Errorf("feature set has no label")
	}

	recs, err := set.records()
	if err != nil {
		return fmt.Errorf("failed to map features for %s: %w", set.Label, err)
	}

	path := s.Path(set.Label)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	enc := msgpack.NewEncoder(f)
	enc.SetSortMapKeys(true)

	if err := enc.Encode(&container{
		Version:  containerVersion,
		Label:    set.Label,
		Features: recs,
	}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode container %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to finalize container %s: %w", path, err)
	}

	return nil
}

// Load reads a label's container back into a typed feature set.
func (s *Store) Load(label string) (*FeatureSet, error) {
	path := s.Path(label)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}
	defer f.Close()

	var c container
	if err := msgpack.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode container %s: %w", path, err)
	}

	if c.Version != containerVersion {
		return nil, fmt.Errorf("container %s has version %d, expected %d", path, c.Version, containerVersion)
	}

	set, err := fromRecords(c.Label, c.Features)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", path, err)
	}
	if set.Label == "" {
		set.Label = label
	}

	return set, nil
}
