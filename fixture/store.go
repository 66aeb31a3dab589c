package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/compare"
)

// Store records captured artifacts as reference fixtures or verifies
// them against previously recorded ones.
//
// Repeated captures under the same identifier within one Store
// lifetime (the pages of a scroll region) get an implicit _NN counter
// suffix; the first capture keeps the bare identifier so single-image
// fixtures have stable names.
type Store struct {
	// Dir is the fixture directory.
	Dir string

	// Record overwrites reference fixtures instead of comparing.
	Record bool

	mu       sync.Mutex
	counters map[string]int
	manifest *Manifest
}

// NewStore opens a fixture directory, loading its manifest when one
// exists. The directory is created on demand in record mode.
func NewStore(dir string, record bool) (*Store, error) {
	s := &Store{
		Dir:      dir,
		Record:   record,
		counters: make(map[string]int),
	}

	m, err := ReadManifest(dir)
	switch {
	case err == nil:
		s.manifest = m
	case errors.Is(err, os.ErrNotExist):
		s.manifest = NewManifest()
	default:
		return nil, err
	}

	if record {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create fixture dir: %w", err)
		}
	}
	return s, nil
}

// MismatchError reports a failed verification with diff detail.
type MismatchError struct {
	Identifier string
	Path       string
	Result     compare.Result
}

func (e *MismatchError) Error() string {
	if e.Result.SizeMismatch {
		return fmt.Sprintf("snapshot %q does not match reference %s: size mismatch", e.Identifier, e.Path)
	}
	return fmt.Sprintf("snapshot %q does not match reference %s: %s (%.2f%% of pixels differ, %d pixels)",
		e.Identifier, e.Path, e.Result.Verdict(), e.Result.DiffPercent, e.Result.DiffCount)
}

// Match records or verifies one artifact under the given identifier.
// In record mode the reference is overwritten and the manifest entry
// refreshed. In verify mode a missing reference is an error that names
// record mode; a pixel mismatch returns a *MismatchError.
func (s *Store) Match(a *artifact.Artifact, id string, cmp compare.Comparator) error {
	s.mu.Lock()
	seq := s.counters[id]
	s.counters[id]++
	s.mu.Unlock()

	fileID := id
	if seq > 0 {
		fileID = fmt.Sprintf("%s_%02d", id, seq)
	}
	relPath := fileID + ".png"
	path := filepath.Join(s.Dir, relPath)

	if s.Record {
		data, err := artifact.EncodePNG(a)
		if err != nil {
			return fmt.Errorf("record %q: %w", id, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("record %q: %w", id, err)
		}

		s.mu.Lock()
		s.manifest.Entries[fileID] = Entry{
			Width:  a.Width,
			Height: a.Height,
			Scale:  a.Scale,
			Size:   int64(len(data)),
			Hash:   artifact.Hash(data, 16),
			Path:   relPath,
		}
		s.mu.Unlock()
		return nil
	}

	ref, err := LoadReference(path, a.Scale)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no reference fixture for %q at %s; run in record mode to create it", id, path)
		}
		return fmt.Errorf("verify %q: %w", id, err)
	}

	res, err := cmp.Compare(a, ref)
	if err != nil {
		return fmt.Errorf("verify %q: %w", id, err)
	}
	if !res.Matched {
		return &MismatchError{Identifier: id, Path: path, Result: res}
	}
	return nil
}

// LoadReference decodes a reference image file. PNG is what the store
// writes, but references produced by other toolchains (bmp, tiff,
// webp) decode too.
func LoadReference(path string, scale float64) (*artifact.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := artifact.Decode(f, scale)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", path, err)
	}
	return a, nil
}

// Flush writes the manifest to the fixture directory. Only meaningful
// after recording; verify-mode stores have nothing to flush.
func (s *Store) Flush() error {
	if !s.Record {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest.WriteJSON(filepath.Join(s.Dir, ManifestName))
}

// Manifest returns the store's in-memory manifest.
func (s *Store) Manifest() *Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}
