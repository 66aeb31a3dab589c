// Package device defines the viewport/device configurations a snapshot
// run is captured under.
package device

// ColorScheme is the light/dark trait of a device configuration.
type ColorScheme int

const (
	ColorSchemeUnspecified ColorScheme = iota
	ColorSchemeLight
	ColorSchemeDark
)

// Traits holds the trait overrides applied to a rendered subject.
type Traits struct {
	ColorScheme ColorScheme `yaml:"color_scheme"`
}

// Merge returns t with non-unspecified fields of over applied on top.
// Later-applied overrides win.
func (t Traits) Merge(over Traits) Traits {
	if over.ColorScheme != ColorSchemeUnspecified {
		t.ColorScheme = over.ColorScheme
	}
	return t
}

// IsDark reports whether the resolved color scheme is dark.
// Unspecified resolves to light.
func (t Traits) IsDark() bool {
	return t.ColorScheme == ColorSchemeDark
}

// Size is a viewport geometry in points.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config is a named viewport/device preset. Value type: copies are
// cheap and mutations never leak. Identity for naming purposes is the
// Name alone, not the geometry.
type Config struct {
	Name string `yaml:"name"`

	// Size is the fixed viewport, or nil for size-flexible canvas
	// configs. Scroll pagination requires a fixed size.
	Size *Size `yaml:"size,omitempty"`

	// Scale is the device pixel density. Zero means 1.
	Scale float64 `yaml:"scale,omitempty"`

	Traits Traits `yaml:"traits,omitempty"`
}

// EffectiveScale returns the capture scale, defaulting to 1.
func (c Config) EffectiveScale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}

// DarkVariant returns a copy of c with the color scheme forced to dark.
// All other traits are preserved by composition; the name is unchanged
// so light and dark fixtures pair up under one config name.
func DarkVariant(c Config) Config {
	c.Traits = c.Traits.Merge(Traits{ColorScheme: ColorSchemeDark})
	return c
}

// Built-in presets.
var (
	// Canvas is size-flexible: the subject dictates its own bounds.
	Canvas = Config{
		Name:   "Canvas",
		Scale:  2,
		Traits: Traits{ColorScheme: ColorSchemeLight},
	}

	// CanvasDark is Canvas with the dark trait applied.
	CanvasDark = DarkVariant(Canvas)

	// Phone is a typical modern handset viewport.
	Phone = Config{
		Name:   "Phone",
		Size:   &Size{Width: 390, Height: 844},
		Scale:  3,
		Traits: Traits{ColorScheme: ColorSchemeLight},
	}

	// Tablet is a large tablet viewport.
	Tablet = Config{
		Name:   "Tablet",
		Size:   &Size{Width: 1024, Height: 1366},
		Scale:  2,
		Traits: Traits{ColorScheme: ColorSchemeLight},
	}
)

var presets = map[string]Config{
	"Canvas":     Canvas,
	"CanvasDark": CanvasDark,
	"Phone":      Phone,
	"Tablet":     Tablet,
}

// Get returns a built-in preset by name. Falls back to Canvas if
// unknown, preserving the requested name.
func Get(name string) Config {
	if c, ok := presets[name]; ok {
		return c
	}
	c := Canvas
	c.Name = name
	return c
}
