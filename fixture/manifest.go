// Package fixture records and verifies reference snapshot images on
// disk, and maintains the manifest the vizreg CLI reports on.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestName is the manifest filename inside a fixture directory.
const ManifestName = "vizreg.manifest.json"

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// Manifest indexes every reference fixture in a directory.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Entries     map[string]Entry `json:"entries"`
	Stats       Stats            `json:"stats"`
}

// Entry describes one recorded reference image.
type Entry struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
	Size   int64   `json:"size"` // bytes on disk
	Hash   string  `json:"hash"` // first 16 hex chars of xxhash64
	Path   string  `json:"path"` // relative to the fixture directory
}

// Stats aggregates manifest metrics.
type Stats struct {
	TotalFixtures int   `json:"total_fixtures"`
	TotalBytes    int64 `json:"total_bytes"`
}

// NewManifest creates an empty manifest with defaults.
func NewManifest() *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:     make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from entries.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalFixtures = len(m.Entries)
	for _, e := range m.Entries {
		s.TotalBytes += e.Size
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file.
func (m *Manifest) WriteJSON(path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadManifest loads a manifest from a fixture directory or from an
// explicit manifest path. Unknown fields from future versions are
// ignored.
func ReadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, ManifestName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Entries == nil {
		m.Entries = make(map[string]Entry)
	}
	return &m, nil
}
