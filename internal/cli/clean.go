package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/vizreg/fixture"
)

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean <fixture_dir>",
	Short: "Delete image files the manifest no longer references",
	Long: `Scans a fixture directory for image files that are not referenced by
the manifest — leftovers from renamed tests or removed device configs —
and deletes them. Use --dry-run to list without deleting.`,
	Args: cobra.ExactArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "list orphans without deleting")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(_ *cobra.Command, args []string) error {
	dir := args[0]

	m, err := fixture.ReadManifest(dir)
	if err != nil {
		return err
	}

	orphans, err := findOrphans(m, dir)
	if err != nil {
		return err
	}

	if len(orphans) == 0 {
		fmt.Println("  ✓ No orphaned fixtures")
		return nil
	}

	for _, o := range orphans {
		if cleanDryRun {
			fmt.Printf("  would delete %s\n", o)
			continue
		}
		logVerbose("deleting %s", o)
		if err := os.Remove(filepath.Join(dir, o)); err != nil {
			return fmt.Errorf("delete %s: %w", o, err)
		}
		fmt.Printf("  deleted %s\n", o)
	}

	if cleanDryRun {
		fmt.Printf("  %d orphan(s) found (dry run)\n", len(orphans))
	} else {
		fmt.Printf("  %d orphan(s) deleted\n", len(orphans))
	}
	return nil
}

// imageExtensions lists the file types the store may have written or
// accepted as references.
var imageExtensions = map[string]bool{
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
}

// findOrphans returns image files in dir (relative paths) that no
// manifest entry references. Subdirectories and hidden files are left
// alone.
func findOrphans(m *fixture.Manifest, dir string) ([]string, error) {
	referenced := map[string]bool{}
	for _, e := range m.Entries {
		referenced[e.Path] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}

	var orphans []string
	for _, de := range entries {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		if !referenced[de.Name()] {
			orphans = append(orphans, de.Name())
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}
