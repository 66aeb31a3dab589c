// Package rodview renders snapshot subjects in a headless Chrome page
// via Rod. A Subject satisfies the snapshot runner's View interface
// and exposes the page's document as its scroll region.
package rodview

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/device"
	"github.com/AnyUserName/vizreg/snapshot"
)

// freezeCSS suppresses CSS animation so captures are stable. Browser
// pages have no global animation flag; the style is injected per
// subject and the runner uses snapshot.StaticHost.
const freezeCSS = `*, *::before, *::after {
	animation: none !important;
	transition: none !important;
	caret-color: transparent !important;
}`

// Subject is one browser page rendered under a device config.
type Subject struct {
	page *rod.Page
	cfg  device.Config
}

// viewportFor resolves the pixel viewport for a config. Size-flexible
// configs fall back to a phone-shaped default.
func viewportFor(cfg device.Config) (width, height int) {
	if cfg.Size != nil {
		return int(cfg.Size.Width), int(cfg.Size.Height)
	}
	return 390, 844
}

// Open creates a page, applies the config's viewport and color-scheme
// trait, navigates, waits for load, and freezes animation.
func Open(ctx context.Context, browser *rod.Browser, url string, cfg device.Config) (*Subject, error) {
	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("rodview: create page: %w", err)
	}
	page = page.Context(ctx)

	w, h := viewportFor(cfg)
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             w,
		Height:            h,
		DeviceScaleFactor: cfg.EffectiveScale(),
		Mobile:            cfg.Size != nil && cfg.Size.Width < 500,
	})
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: set viewport: %w", err)
	}

	scheme := "light"
	if cfg.Traits.IsDark() {
		scheme = "dark"
	}
	err = proto.EmulationSetEmulatedMedia{
		Features: []*proto.EmulationMediaFeature{
			{Name: "prefers-color-scheme", Value: scheme},
		},
	}.Call(page)
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: emulate color scheme: %w", err)
	}

	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: wait load: %w", err)
	}

	if err := page.AddStyleTag("", freezeCSS); err != nil {
		page.Close()
		return nil, fmt.Errorf("rodview: freeze animations: %w", err)
	}

	return &Subject{page: page, cfg: cfg}, nil
}

// LayoutNow forces a synchronous layout pass by reading a geometry
// property the engine must resolve.
func (s *Subject) LayoutNow() error {
	_, err := s.page.Eval(`() => {
		document.documentElement.offsetHeight;
	}`)
	if err != nil {
		return fmt.Errorf("rodview: force layout: %w", err)
	}
	return nil
}

// Capture screenshots the viewport and wraps it in an artifact at the
// config's scale.
func (s *Subject) Capture() (*artifact.Artifact, error) {
	data, err := s.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("rodview: screenshot: %w", err)
	}

	a, err := artifact.Decode(bytes.NewReader(data), s.cfg.EffectiveScale())
	if err != nil {
		return nil, fmt.Errorf("rodview: %w", err)
	}
	return a, nil
}

// ScrollRegion exposes the page's document scroll. Returns the region
// for use as a snapshot.Request scroll accessor.
func (s *Subject) ScrollRegion() snapshot.ScrollRegion {
	return &documentRegion{page: s.page}
}

// Close releases the page.
func (s *Subject) Close() error {
	if s.page != nil {
		return s.page.Close()
	}
	return nil
}

// documentRegion scrolls the page document. Geometry getters report
// zero when the page is gone; the runner then captures no extra pages.
type documentRegion struct {
	page *rod.Page
}

func (r *documentRegion) ContentHeight() float64 {
	res, err := r.page.Eval(`() => document.documentElement.scrollHeight`)
	if err != nil {
		return 0
	}
	return res.Value.Num()
}

func (r *documentRegion) Offset() float64 {
	res, err := r.page.Eval(`() => window.pageYOffset`)
	if err != nil {
		return 0
	}
	return res.Value.Num()
}

func (r *documentRegion) SetOffset(offset float64) error {
	_, err := r.page.Eval(`(y) => window.scrollTo(0, y)`, offset)
	if err != nil {
		return fmt.Errorf("rodview: scroll to %v: %w", offset, err)
	}
	return nil
}

// Top is zero: the document region starts at the page origin.
func (r *documentRegion) Top() float64 { return 0 }
