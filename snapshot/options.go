package snapshot

import (
	"context"
	"time"

	"github.com/AnyUserName/vizreg/compare"
)

// Capabilities describes what the rendering backend guarantees.
type Capabilities struct {
	// BitExactRendering is true when the backend produces identical
	// pixels across machines. GPU-rendered backends generally cannot
	// guarantee this, so comparison runs with a perceptual tolerance.
	BitExactRendering bool
}

// Options configures a Runner. All policy lives here, not in package
// globals, so concurrent runners can use different policies.
type Options struct {
	// Precision is the fraction of pixels that must match, 0..1.
	// Zero means 1 (every pixel).
	Precision float64

	// PerceptualPrecision is the per-pixel color tolerance, 0..1.
	// Zero derives it from Capabilities: 1 for bit-exact backends,
	// 0.98 otherwise.
	PerceptualPrecision float64

	// SettleInitial is the wait after the first layout pass, letting
	// in-flight asynchronous content resolve. Default 100ms.
	SettleInitial time.Duration

	// SettleWindow is the wait after window attachment, which triggers
	// more asynchronous work than in-place layout. Default 500ms.
	SettleWindow time.Duration

	// SettlePreCapture is the short wait immediately before each
	// capture. Default 50ms.
	SettlePreCapture time.Duration

	// WindowHeight is the mount-window height in points. Tall enough
	// to force layout of lazily-rendered content. Default 10000.
	WindowHeight float64

	// DefaultWidth is the mount-window width for size-flexible
	// configs. Default 390.
	DefaultWidth float64

	// Capabilities of the rendering backend.
	Capabilities Capabilities

	// Comparator overrides the default pixel comparator.
	Comparator compare.Comparator

	// Sleep is the cooperative wait used at settle points. Nil uses a
	// timer honoring ctx. Tests inject an instant fake.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *Options) defaults() {
	if o.Precision <= 0 {
		o.Precision = 1
	}
	if o.PerceptualPrecision <= 0 {
		if o.Capabilities.BitExactRendering {
			o.PerceptualPrecision = 1
		} else {
			o.PerceptualPrecision = 0.98
		}
	}
	if o.SettleInitial <= 0 {
		o.SettleInitial = 100 * time.Millisecond
	}
	if o.SettleWindow <= 0 {
		o.SettleWindow = 500 * time.Millisecond
	}
	if o.SettlePreCapture <= 0 {
		o.SettlePreCapture = 50 * time.Millisecond
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = 10000
	}
	if o.DefaultWidth <= 0 {
		o.DefaultWidth = 390
	}
	if o.Comparator == nil {
		o.Comparator = compare.Pixel{
			Precision:           o.Precision,
			PerceptualPrecision: o.PerceptualPrecision,
		}
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
}

// sleepCtx waits for d or until ctx is done. A cooperative yield, not
// busy-waiting.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
