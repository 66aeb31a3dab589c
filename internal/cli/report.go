package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/vizreg/fixture"
)

var reportCmd = &cobra.Command{
	Use:   "report <fixture_dir_or_manifest>",
	Short: "Display statistics for a fixture directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	m, err := fixture.ReadManifest(args[0])
	if err != nil {
		return err
	}
	printReport(m)
	return nil
}

func printReport(m *fixture.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total fixtures:   %d\n", s.TotalFixtures)
	fmt.Printf("  Total size:       %s\n", formatBytes(s.TotalBytes))
	fmt.Println()

	if len(m.Entries) == 0 {
		return
	}

	// Per-config breakdown: the config name is the second identifier
	// component.
	configStats := map[string]struct {
		count int
		bytes int64
	}{}
	for id, e := range m.Entries {
		cs := configStats[configOf(id)]
		cs.count++
		cs.bytes += e.Size
		configStats[configOf(id)] = cs
	}

	var configs []string
	for c := range configStats {
		configs = append(configs, c)
	}
	sort.Strings(configs)

	fmt.Println("  Config breakdown:")
	for _, c := range configs {
		cs := configStats[c]
		fmt.Printf("    %-16s %4d fixtures  %s\n", c, cs.count, formatBytes(cs.bytes))
	}
	fmt.Println()

	// Top 10 heaviest fixtures.
	type entrySize struct {
		id   string
		size int64
	}
	var items []entrySize
	for id, e := range m.Entries {
		items = append(items, entrySize{id, e.Size})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].size != items[j].size {
			return items[i].size > items[j].size
		}
		return items[i].id < items[j].id
	})
	n := len(items)
	if n > 10 {
		n = 10
	}
	fmt.Printf("  Top %d heaviest:\n", n)
	for _, it := range items[:n] {
		fmt.Printf("    %-50s %8s\n", truncID(it.id, 50), formatBytes(it.size))
	}
	fmt.Println()
}

// configOf extracts the device-config component from an identifier
// (testName-config-trait-...).
func configOf(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}

func truncID(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
