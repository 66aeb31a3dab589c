// Package snapshot orchestrates visual-regression captures: for each
// device config it renders a fresh subject, optionally mounts it in a
// full-lifecycle host window, captures the whole view, paginates any
// scrollable region, and records or verifies every artifact against
// the fixture store.
package snapshot

import (
	"fmt"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/device"
	"github.com/AnyUserName/vizreg/typesize"
)

// View is a renderable subject. Implementations must support a forced
// synchronous layout pass and pixel capture.
type View interface {
	// LayoutNow forces a synchronous layout pass.
	LayoutNow() error

	// Capture renders the current state into an artifact.
	Capture() (*artifact.Artifact, error)
}

// ScrollRegion exposes the scrollable portion of a subject.
type ScrollRegion interface {
	// ContentHeight is the total scrollable content height in points.
	ContentHeight() float64

	// Offset is the current vertical scroll offset.
	Offset() float64

	// SetOffset scrolls to the given vertical offset.
	SetOffset(offset float64) error

	// Top is the vertical position of the region relative to the
	// subject's origin; it shrinks the usable page height.
	Top() float64
}

// Window is a mounted host window driving the full appearance
// lifecycle of its root view.
type Window interface {
	// Activate makes the window active and visible.
	Activate() error

	// SafeAreaInset is the top inset the window introduces.
	SafeAreaInset() float64

	// Close detaches the root view and releases the window.
	Close() error
}

// Host is the rendering environment a run executes against. It owns
// the global animation flag and the window system.
type Host interface {
	// AnimationsEnabled reports the current global animation state.
	AnimationsEnabled() bool

	// SetAnimationsEnabled toggles animations host-wide.
	SetAnimationsEnabled(enabled bool) error

	// MountWindow attaches the view as the root of a new window of
	// the given size.
	MountWindow(v View, size device.Size) (Window, error)
}

// StaticHost serves backends without a global animation flag or a
// window system, such as browser pages that disable animation per
// subject. Mounting windows on it is an error.
type StaticHost struct{}

func (StaticHost) AnimationsEnabled() bool         { return false }
func (StaticHost) SetAnimationsEnabled(bool) error { return nil }

func (StaticHost) MountWindow(View, device.Size) (Window, error) {
	return nil, fmt.Errorf("static host does not support window mounting")
}

// Request describes one snapshot test invocation. Constructed per
// test; not persisted.
type Request struct {
	// Name is the base test name, the first identifier component.
	Name string

	// Subject produces a fresh renderable view. It is called once per
	// device config; instances are never reused across configs.
	Subject func() (View, error)

	// ScrollRegionOf extracts the scrollable region of a subject, or
	// nil when the subject has none. Optional; absence skips
	// pagination.
	ScrollRegionOf func(View) ScrollRegion

	// Configs are the device configurations to capture under, in
	// order. Empty defaults to Canvas and CanvasDark.
	Configs []device.Config

	// Size is the type size used for naming only.
	Size typesize.TypeSize

	// DoccSizes flags sizes whose snapshots feed documentation
	// generation; they gain the Docc name suffix.
	DoccSizes []typesize.TypeSize

	// MountInWindow drives the subject through a full window
	// lifecycle before capture, forcing lazily-rendered content to
	// materialize.
	MountInWindow bool
}

func (req *Request) validate() error {
	if req.Name == "" {
		return fmt.Errorf("snapshot: request has no name")
	}
	if req.Subject == nil {
		return fmt.Errorf("snapshot: request has no subject factory")
	}
	return nil
}
