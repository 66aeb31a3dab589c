package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/fixture"
)

// hashOf matches the store's manifest hashing: xxhash64, 16 hex chars.
func hashOf(data []byte) string {
	return artifact.Hash(data, 16)
}

var validateDecode bool

var validateCmd = &cobra.Command{
	Use:   "validate <fixture_dir>",
	Short: "Validate a fixture manifest and check referenced files exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDecode, "decode", false,
		"decode every referenced image (slower, catches corrupt files)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	dir := args[0]

	m, err := fixture.ReadManifest(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	baseDir := dir
	if !info.IsDir() {
		baseDir = filepath.Dir(dir)
	}

	errs := validateManifest(m, baseDir, validateDecode)

	if len(errs) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d fixtures — all files present\n", m.Stats.TotalFixtures)
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *fixture.Manifest, baseDir string, decode bool) []string {
	var errs []string

	if m.Version != fixture.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	seenPaths := map[string]string{}
	for id, e := range m.Entries {
		if e.Width <= 0 || e.Height <= 0 {
			errs = append(errs, fmt.Sprintf("fixture %q: invalid dimensions %dx%d", id, e.Width, e.Height))
		}
		if e.Scale <= 0 {
			errs = append(errs, fmt.Sprintf("fixture %q: invalid scale %v", id, e.Scale))
		}
		if e.Hash == "" {
			errs = append(errs, fmt.Sprintf("fixture %q: missing hash", id))
		}
		if e.Path == "" {
			errs = append(errs, fmt.Sprintf("fixture %q: missing path", id))
			continue
		}

		if prev, dup := seenPaths[e.Path]; dup {
			errs = append(errs, fmt.Sprintf("fixture %q: duplicate path %q (also %q)", id, e.Path, prev))
		}
		seenPaths[e.Path] = id

		fullPath := filepath.Join(baseDir, e.Path)
		info, err := os.Stat(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("fixture %q: file not found: %s", id, e.Path))
			continue
		}
		if e.Size > 0 && info.Size() != e.Size {
			errs = append(errs, fmt.Sprintf("fixture %q: size mismatch: manifest=%d, disk=%d",
				id, e.Size, info.Size()))
		}

		if data, err := os.ReadFile(fullPath); err == nil {
			if got := hashOf(data); e.Hash != "" && got != e.Hash {
				errs = append(errs, fmt.Sprintf("fixture %q: hash mismatch: manifest=%s, disk=%s",
					id, e.Hash, got))
			}
		}

		if decode {
			logVerbose("decoding %s", e.Path)
			if _, err := fixture.LoadReference(fullPath, e.Scale); err != nil {
				errs = append(errs, fmt.Sprintf("fixture %q: undecodable: %v", id, err))
			}
		}
	}

	// Stats consistency.
	if m.Stats.TotalFixtures != len(m.Entries) {
		errs = append(errs, fmt.Sprintf("stats.total_fixtures mismatch: %d != %d",
			m.Stats.TotalFixtures, len(m.Entries)))
	}

	return errs
}
