// Package naming derives deterministic, filesystem-safe identifiers
// for snapshot fixtures. The identifier is what pairs a capture with
// its on-disk reference, so it must be stable across runs and distinct
// across any difference in the inputs.
package naming

import (
	"strconv"
	"strings"

	"github.com/AnyUserName/vizreg/device"
	"github.com/AnyUserName/vizreg/typesize"
)

// Separator joins identifier components.
const Separator = "-"

// DoccSuffix marks snapshot variants used for documentation generation.
const DoccSuffix = Separator + "Docc"

// Combined builds the snapshot identifier from the test name, device
// config, resolved color-scheme trait, and type size.
//
// Components, in order: testName, config name, "Dark"/"Light", the
// 0-based index of ts in the standard matrix, and the size label. The
// index is omitted entirely when ts is outside the standard matrix —
// callers may capture custom sizes — without leaving a doubled
// separator. The Docc suffix is appended iff ts is listed in docc.
func Combined(testName string, cfg device.Config, ts typesize.TypeSize, docc []typesize.TypeSize) string {
	trait := "Light"
	if cfg.Traits.IsDark() {
		trait = "Dark"
	}

	parts := make([]string, 0, 5)
	parts = append(parts, testName, cfg.Name, trait)
	if idx, ok := typesize.IndexInStandard(ts); ok {
		parts = append(parts, strconv.Itoa(idx))
	}
	parts = append(parts, ts.Label())

	name := strings.Join(parts, Separator)
	for _, d := range docc {
		if d == ts {
			return name + DoccSuffix
		}
	}
	return name
}
