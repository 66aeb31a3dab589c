package cli

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/compare"
	"github.com/AnyUserName/vizreg/fixture"
)

// recordFixtures populates a fixture dir with n recorded entries.
func recordFixtures(t *testing.T, dir string, ids ...string) {
	t.Helper()
	store, err := fixture.NewStore(dir, true)
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 42, G: 42, B: 42, A: 255})
		}
	}
	for _, id := range ids {
		require.NoError(t, store.Match(artifact.New(img, 1), id, compare.Pixel{}))
	}
	require.NoError(t, store.Flush())
}

func TestValidateManifest_Clean(t *testing.T) {
	dir := t.TempDir()
	recordFixtures(t, dir, "Profile-Phone-Light-1-large", "Profile-Tablet-Dark-1-large")

	m, err := fixture.ReadManifest(dir)
	require.NoError(t, err)

	errs := validateManifest(m, dir, true)
	assert.Empty(t, errs)
}

func TestValidateManifest_MissingFile(t *testing.T) {
	dir := t.TempDir()
	recordFixtures(t, dir, "Profile-Phone-Light-1-large")
	require.NoError(t, os.Remove(filepath.Join(dir, "Profile-Phone-Light-1-large.png")))

	m, err := fixture.ReadManifest(dir)
	require.NoError(t, err)

	errs := validateManifest(m, dir, false)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "file not found")
}

func TestValidateManifest_HashMismatch(t *testing.T) {
	dir := t.TempDir()
	recordFixtures(t, dir, "Profile-Phone-Light-1-large")

	m, err := fixture.ReadManifest(dir)
	require.NoError(t, err)

	// Tamper with the manifest entry, keeping size consistent.
	e := m.Entries["Profile-Phone-Light-1-large"]
	e.Hash = "0000000000000000"
	m.Entries["Profile-Phone-Light-1-large"] = e

	errs := validateManifest(m, dir, false)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "hash mismatch")
}

func TestValidateManifest_BadEntries(t *testing.T) {
	m := fixture.NewManifest()
	m.Entries["bad"] = fixture.Entry{Width: 0, Height: 10, Scale: 0, Path: ""}
	m.ComputeStats()

	errs := validateManifest(m, t.TempDir(), false)
	// Dimensions, scale, hash, and path are all flagged.
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestFindOrphans(t *testing.T) {
	dir := t.TempDir()
	recordFixtures(t, dir, "Profile-Phone-Light-1-large")

	// An orphan image, a hidden file, and a non-image file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Old-Test-Light-large.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	m, err := fixture.ReadManifest(dir)
	require.NoError(t, err)

	orphans, err := findOrphans(m, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old-Test-Light-large.png"}, orphans)
}

func TestConfigOf(t *testing.T) {
	assert.Equal(t, "Phone", configOf("Profile-Phone-Light-2-xxxLarge"))
	assert.Equal(t, "Canvas", configOf("Feed-Canvas-Dark-large"))
	assert.Equal(t, "unknown", configOf("weird"))
}
