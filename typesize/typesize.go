// Package typesize catalogs the dynamic text-size variants a snapshot
// run can be exercised under, and the curated matrices test suites
// iterate over.
package typesize

// TypeSize is one dynamic text-size variant of the host platform.
type TypeSize int

// Known variants, smallest to largest. Values added by future platform
// versions map to Unknown rather than failing.
const (
	Unknown TypeSize = iota
	XSmall
	Small
	Medium
	Large // platform default
	XLarge
	XXLarge
	XXXLarge
	AccessibilityMedium
	AccessibilityLarge
	AccessibilityXLarge
	AccessibilityXXLarge
	AccessibilityXXXLarge
)

// labels maps every known variant to its canonical display label.
// Labels are ASCII-only: they end up in fixture filenames.
var labels = map[TypeSize]string{
	XSmall:                "xSmall",
	Small:                 "small",
	Medium:                "medium",
	Large:                 "large",
	XLarge:                "xLarge",
	XXLarge:               "xxLarge",
	XXXLarge:              "xxxLarge",
	AccessibilityMedium:   "accessibilityMedium",
	AccessibilityLarge:    "accessibilityLarge",
	AccessibilityXLarge:   "accessibilityXLarge",
	AccessibilityXXLarge:  "accessibilityXXLarge",
	AccessibilityXXXLarge: "accessibilityXXXLarge",
}

// Label returns the canonical display label for the variant.
// Unrecognized variants degrade to "unknown" instead of failing.
func (ts TypeSize) Label() string {
	if l, ok := labels[ts]; ok {
		return l
	}
	return "unknown"
}

// standard is the curated 4-variant matrix: smallest, default,
// largest standard, largest accessibility. Bounds test count while
// still covering the extremes.
var standard = [4]TypeSize{XSmall, Large, XXXLarge, AccessibilityXXXLarge}

// minimal is the cheap 2-variant matrix: default and largest accessibility.
var minimal = [2]TypeSize{Large, AccessibilityXXXLarge}

// Standard returns the standard test matrix. The slice is a fresh copy;
// callers may reorder or extend it.
func Standard() []TypeSize {
	s := standard
	return s[:]
}

// Minimal returns the reduced test matrix for cheaper suites.
func Minimal() []TypeSize {
	m := minimal
	return m[:]
}

// IndexInStandard returns the 0-based position of ts within the
// standard matrix, or false when ts is not part of it.
func IndexInStandard(ts TypeSize) (int, bool) {
	for i, s := range standard {
		if s == ts {
			return i, true
		}
	}
	return 0, false
}
