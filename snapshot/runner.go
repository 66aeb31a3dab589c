package snapshot

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/compare"
	"github.com/AnyUserName/vizreg/device"
	"github.com/AnyUserName/vizreg/fixture"
	"github.com/AnyUserName/vizreg/naming"
)

// Runner executes snapshot requests against one host rendering
// context. Device configs run strictly sequentially: they share the
// host's animation flag and rendering surface. Callers needing
// parallel runs must use isolated hosts.
type Runner struct {
	opts  Options
	host  Host
	store *fixture.Store
	cmp   compare.Comparator
}

// NewRunner builds a runner. Recording policy comes from the store;
// comparison policy from opts.
func NewRunner(host Host, store *fixture.Store, opts Options) *Runner {
	opts.defaults()
	return &Runner{
		opts:  opts,
		host:  host,
		store: store,
		cmp:   opts.Comparator,
	}
}

// Run executes one request: every device config in order, one whole
// capture plus scroll pages per config. Animation suspension is
// captured once for the whole run and restored on every exit path.
// Mismatches are collected across configs and joined; any other
// failure aborts immediately. Both still restore the animation state.
func (r *Runner) Run(ctx context.Context, req Request) (err error) {
	if verr := req.validate(); verr != nil {
		return verr
	}

	configs := req.Configs
	if len(configs) == 0 {
		configs = []device.Config{device.Canvas, device.CanvasDark}
	}

	prev := r.host.AnimationsEnabled()
	if aerr := r.host.SetAnimationsEnabled(false); aerr != nil {
		return fmt.Errorf("suspend animations: %w", aerr)
	}
	defer func() {
		if rerr := r.host.SetAnimationsEnabled(prev); rerr != nil && err == nil {
			err = fmt.Errorf("restore animations: %w", rerr)
		}
	}()

	var mismatches []error
	for _, cfg := range configs {
		cerr := r.runConfig(ctx, req, cfg)
		if cerr == nil {
			continue
		}
		var mm *fixture.MismatchError
		if errors.As(cerr, &mm) {
			mismatches = append(mismatches, cerr)
			continue
		}
		return fmt.Errorf("config %s: %w", cfg.Name, cerr)
	}
	return errors.Join(mismatches...)
}

// runConfig drives one device config through the capture state
// machine: fresh subject, layout, optional window mount, whole
// capture, scroll pagination.
func (r *Runner) runConfig(ctx context.Context, req Request, cfg device.Config) error {
	subject, err := req.Subject()
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}

	if err := subject.LayoutNow(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := r.opts.Sleep(ctx, r.opts.SettleInitial); err != nil {
		return err
	}

	var inset float64
	if req.MountInWindow {
		width := r.opts.DefaultWidth
		if cfg.Size != nil {
			width = cfg.Size.Width
		}
		win, err := r.host.MountWindow(subject, device.Size{
			Width:  width,
			Height: r.opts.WindowHeight,
		})
		if err != nil {
			return fmt.Errorf("mount window: %w", err)
		}
		defer win.Close()

		if err := win.Activate(); err != nil {
			return fmt.Errorf("activate window: %w", err)
		}
		if err := subject.LayoutNow(); err != nil {
			return fmt.Errorf("layout after mount: %w", err)
		}
		if err := r.opts.Sleep(ctx, r.opts.SettleWindow); err != nil {
			return err
		}
		inset = win.SafeAreaInset()
	}

	id := naming.Combined(req.Name, cfg, req.Size, req.DoccSizes)

	if err := r.capture(ctx, subject, id); err != nil {
		return err
	}

	// Pagination needs both a scroll region and a fixed viewport;
	// size-flexible canvas configs skip it silently.
	if req.ScrollRegionOf == nil || cfg.Size == nil {
		return nil
	}
	region := req.ScrollRegionOf(subject)
	if region == nil {
		return nil
	}
	return r.paginate(ctx, subject, region, cfg, inset, id)
}

// capture settles, captures, reduces, and matches one artifact.
func (r *Runner) capture(ctx context.Context, subject View, id string) error {
	if err := r.opts.Sleep(ctx, r.opts.SettlePreCapture); err != nil {
		return err
	}
	a, err := subject.Capture()
	if err != nil {
		return fmt.Errorf("capture %q: %w", id, err)
	}
	return r.store.Match(artifact.Reduce(a), id, r.cmp)
}

// paginate captures one artifact per page of scrollable content beyond
// the first (already captured) page. The scroll offset is restored to
// zero regardless of outcome. Pages share the identifier; the store
// disambiguates with its implicit counter.
func (r *Runner) paginate(ctx context.Context, subject View, region ScrollRegion, cfg device.Config, inset float64, id string) (err error) {
	defer func() {
		if rerr := region.SetOffset(0); rerr != nil && err == nil {
			err = fmt.Errorf("restore scroll offset: %w", rerr)
		}
	}()

	pageHeight := cfg.Size.Height - (region.Top() + inset)
	if pageHeight <= 0 {
		return nil
	}
	pages := int(math.Ceil(region.ContentHeight() / pageHeight))

	for page := 1; page < pages; page++ {
		if err := region.SetOffset(float64(page) * pageHeight); err != nil {
			return fmt.Errorf("scroll page %d: %w", page, err)
		}
		if err := r.capture(ctx, subject, id); err != nil {
			return err
		}
	}
	return nil
}
