package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/AnyUserName/vizreg/artifact"
	"github.com/AnyUserName/vizreg/device"
	"github.com/AnyUserName/vizreg/fixture"
	"github.com/AnyUserName/vizreg/typesize"
)

// fakeView renders a uniform color and counts lifecycle calls.
type fakeView struct {
	fill       color.NRGBA
	layouts    int
	captures   int
	captureErr error
	region     *fakeRegion
}

func (v *fakeView) LayoutNow() error { v.layouts++; return nil }

func (v *fakeView) Capture() (*artifact.Artifact, error) {
	v.captures++
	if v.captureErr != nil {
		return nil, v.captureErr
	}
	img := image.NewNRGBA(image.Rect(0, 0, 40, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 40; x++ {
			img.SetNRGBA(x, y, v.fill)
		}
	}
	return artifact.New(img, 2), nil
}

type fakeRegion struct {
	contentH float64
	top      float64
	offset   float64
	offsets  []float64
}

func (r *fakeRegion) ContentHeight() float64 { return r.contentH }
func (r *fakeRegion) Offset() float64        { return r.offset }
func (r *fakeRegion) Top() float64           { return r.top }

func (r *fakeRegion) SetOffset(o float64) error {
	r.offset = o
	r.offsets = append(r.offsets, o)
	return nil
}

type fakeWindow struct {
	inset     float64
	activated bool
	closed    bool
}

func (w *fakeWindow) Activate() error        { w.activated = true; return nil }
func (w *fakeWindow) SafeAreaInset() float64 { return w.inset }
func (w *fakeWindow) Close() error           { w.closed = true; return nil }

type fakeHost struct {
	animations bool
	setCalls   []bool
	inset      float64
	windows    []*fakeWindow
	mountSizes []device.Size
}

func (h *fakeHost) AnimationsEnabled() bool { return h.animations }

func (h *fakeHost) SetAnimationsEnabled(enabled bool) error {
	h.animations = enabled
	h.setCalls = append(h.setCalls, enabled)
	return nil
}

func (h *fakeHost) MountWindow(_ View, size device.Size) (Window, error) {
	w := &fakeWindow{inset: h.inset}
	h.windows = append(h.windows, w)
	h.mountSizes = append(h.mountSizes, size)
	return w, nil
}

func instantSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestRunner(t *testing.T, host Host, record bool) (*Runner, *fixture.Store) {
	t.Helper()
	store, err := fixture.NewStore(t.TempDir(), record)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(host, store, Options{
		Capabilities: Capabilities{BitExactRendering: true},
		Sleep:        instantSleep,
	}), store
}

func basicRequest(views *[]*fakeView, configs ...device.Config) Request {
	return Request{
		Name: "Profile",
		Subject: func() (View, error) {
			v := &fakeView{fill: color.NRGBA{R: 20, G: 120, B: 220, A: 255}}
			*views = append(*views, v)
			return v, nil
		},
		Configs: configs,
		Size:    typesize.Large,
	}
}

func TestRun_FreshSubjectPerConfig(t *testing.T) {
	host := &fakeHost{animations: true}
	r, _ := newTestRunner(t, host, true)

	var views []*fakeView
	req := basicRequest(&views, device.Phone, device.DarkVariant(device.Phone), device.Tablet)

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(views) != 3 {
		t.Errorf("subject factory called %d times, want 3", len(views))
	}
	for i, v := range views {
		if v.captures != 1 {
			t.Errorf("view %d captured %d times, want 1", i, v.captures)
		}
		if v.layouts == 0 {
			t.Errorf("view %d never laid out", i)
		}
	}
}

func TestRun_AnimationGuardRestored(t *testing.T) {
	host := &fakeHost{animations: true}
	r, _ := newTestRunner(t, host, true)

	var views []*fakeView
	if err := r.Run(context.Background(), basicRequest(&views, device.Phone)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !host.animations {
		t.Error("animation state not restored after success")
	}
	if len(host.setCalls) < 2 || host.setCalls[0] != false || host.setCalls[len(host.setCalls)-1] != true {
		t.Errorf("animation calls: %v", host.setCalls)
	}
}

func TestRun_AnimationGuardRestoredOnFailure(t *testing.T) {
	host := &fakeHost{animations: true}
	r, _ := newTestRunner(t, host, true)

	boom := fmt.Errorf("render backend exploded")
	req := Request{
		Name: "Profile",
		Subject: func() (View, error) {
			return &fakeView{captureErr: boom}, nil
		},
		Configs: []device.Config{device.Phone},
	}

	err := r.Run(context.Background(), req)
	if !errors.Is(err, boom) {
		t.Fatalf("expected capture failure, got %v", err)
	}
	if !host.animations {
		t.Error("animation state not restored after failure")
	}
}

func TestRun_DefaultConfigs(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	var views []*fakeView
	req := basicRequest(&views) // no configs

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Canvas and CanvasDark.
	if len(views) != 2 {
		t.Errorf("got %d subjects, want 2", len(views))
	}
}

func TestRun_WindowMount(t *testing.T) {
	host := &fakeHost{inset: 20}
	r, _ := newTestRunner(t, host, true)

	var views []*fakeView
	req := basicRequest(&views, device.Phone)
	req.MountInWindow = true

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(host.windows) != 1 {
		t.Fatalf("mounted %d windows, want 1", len(host.windows))
	}
	w := host.windows[0]
	if !w.activated {
		t.Error("window never activated")
	}
	if !w.closed {
		t.Error("window never closed")
	}
	size := host.mountSizes[0]
	if size.Width != device.Phone.Size.Width {
		t.Errorf("window width %v, want config width %v", size.Width, device.Phone.Size.Width)
	}
	if size.Height != 10000 {
		t.Errorf("window height %v, want tall default", size.Height)
	}
	// Two layout passes: initial and post-mount.
	if views[0].layouts != 2 {
		t.Errorf("layouts = %d, want 2", views[0].layouts)
	}
}

func TestRun_WindowMount_DefaultWidthForFlexibleConfig(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	var views []*fakeView
	req := basicRequest(&views, device.Canvas)
	req.MountInWindow = true

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if host.mountSizes[0].Width != 390 {
		t.Errorf("window width %v, want default 390", host.mountSizes[0].Width)
	}
}

func TestRun_Pagination(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	region := &fakeRegion{contentH: 2000, top: 44}
	var captured *fakeView
	req := Request{
		Name: "Feed",
		Subject: func() (View, error) {
			captured = &fakeView{
				fill:   color.NRGBA{R: 5, G: 5, B: 5, A: 255},
				region: region,
			}
			return captured, nil
		},
		ScrollRegionOf: func(v View) ScrollRegion { return v.(*fakeView).region },
		Configs:        []device.Config{device.Phone}, // height 844
		Size:           typesize.Large,
	}

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}

	// pageHeight = 844 - 44 = 800; pages = ceil(2000/800) = 3.
	// Whole capture + pages 1 and 2.
	if captured.captures != 3 {
		t.Errorf("captures = %d, want 3", captured.captures)
	}
	wantOffsets := []float64{800, 1600, 0}
	if len(region.offsets) != len(wantOffsets) {
		t.Fatalf("offsets = %v, want %v", region.offsets, wantOffsets)
	}
	for i, o := range wantOffsets {
		if region.offsets[i] != o {
			t.Errorf("offset[%d] = %v, want %v", i, region.offsets[i], o)
		}
	}
	if region.offset != 0 {
		t.Errorf("final offset %v, want 0", region.offset)
	}
}

func TestRun_PaginationSkippedWithoutFixedSize(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	region := &fakeRegion{contentH: 5000}
	var captured *fakeView
	req := Request{
		Name: "Feed",
		Subject: func() (View, error) {
			captured = &fakeView{fill: color.NRGBA{A: 255}, region: region}
			return captured, nil
		},
		ScrollRegionOf: func(v View) ScrollRegion { return v.(*fakeView).region },
		Configs:        []device.Config{device.Canvas}, // size-flexible
	}

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if captured.captures != 1 {
		t.Errorf("captures = %d, want 1 (pagination skipped)", captured.captures)
	}
	if len(region.offsets) != 0 {
		t.Errorf("scroll touched on flexible config: %v", region.offsets)
	}
}

func TestRun_PaginationSkippedWithoutRegion(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	var captured *fakeView
	req := Request{
		Name: "Feed",
		Subject: func() (View, error) {
			captured = &fakeView{fill: color.NRGBA{A: 255}}
			return captured, nil
		},
		ScrollRegionOf: func(View) ScrollRegion { return nil },
		Configs:        []device.Config{device.Phone},
	}

	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}
	if captured.captures != 1 {
		t.Errorf("captures = %d, want 1", captured.captures)
	}
}

func TestRun_RecordThenVerify(t *testing.T) {
	dir := t.TempDir()
	host := &fakeHost{}

	run := func(record bool, fill color.NRGBA) error {
		store, err := fixture.NewStore(dir, record)
		if err != nil {
			t.Fatal(err)
		}
		r := NewRunner(host, store, Options{
			Capabilities: Capabilities{BitExactRendering: true},
			Sleep:        instantSleep,
		})
		req := Request{
			Name: "Profile",
			Subject: func() (View, error) {
				return &fakeView{fill: fill}, nil
			},
			Configs: []device.Config{device.Phone},
			Size:    typesize.Large,
		}
		return r.Run(context.Background(), req)
	}

	blue := color.NRGBA{R: 10, G: 10, B: 200, A: 255}
	if err := run(true, blue); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := run(false, blue); err != nil {
		t.Fatalf("verify identical: %v", err)
	}

	red := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	err := run(false, red)
	if err == nil {
		t.Fatal("verify with changed pixels passed")
	}
	var mm *fixture.MismatchError
	if !errors.As(err, &mm) {
		t.Fatalf("want MismatchError, got %v", err)
	}
}

func TestRun_MismatchesCollectedAcrossConfigs(t *testing.T) {
	dir := t.TempDir()
	host := &fakeHost{}

	record, err := fixture.NewStore(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	blue := color.NRGBA{R: 10, G: 10, B: 200, A: 255}
	recorder := NewRunner(host, record, Options{Sleep: instantSleep})
	req := Request{
		Name: "Profile",
		Subject: func() (View, error) {
			return &fakeView{fill: blue}, nil
		},
		Configs: []device.Config{device.Phone, device.Tablet},
		Size:    typesize.Large,
	}
	if err := recorder.Run(context.Background(), req); err != nil {
		t.Fatalf("record: %v", err)
	}

	verify, err := fixture.NewStore(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	verifier := NewRunner(host, verify, Options{Sleep: instantSleep})
	req.Subject = func() (View, error) {
		return &fakeView{fill: color.NRGBA{R: 200, G: 10, B: 10, A: 255}}, nil
	}

	rerr := verifier.Run(context.Background(), req)
	if rerr == nil {
		t.Fatal("expected mismatches")
	}
	// Both configs were attempted and both reported.
	if n := strings.Count(rerr.Error(), "does not match"); n != 2 {
		t.Errorf("reported %d mismatches, want 2: %v", n, rerr)
	}
	if host.animations {
		t.Error("animation state not restored to pre-run value")
	}
}

func TestRun_SettleUsesInjectedSleep(t *testing.T) {
	host := &fakeHost{}
	store, err := fixture.NewStore(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}

	var waits []time.Duration
	r := NewRunner(host, store, Options{
		SettleInitial:    7 * time.Millisecond,
		SettleWindow:     11 * time.Millisecond,
		SettlePreCapture: 3 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	})

	req := Request{
		Name: "Profile",
		Subject: func() (View, error) {
			return &fakeView{fill: color.NRGBA{A: 255}}, nil
		},
		Configs:       []device.Config{device.Phone},
		MountInWindow: true,
	}
	if err := r.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []time.Duration{7 * time.Millisecond, 11 * time.Millisecond, 3 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %v", waits, want)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	host := &fakeHost{}
	store, err := fixture.NewStore(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(host, store, Options{}) // real timer sleep

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{
		Name: "Profile",
		Subject: func() (View, error) {
			return &fakeView{fill: color.NRGBA{A: 255}}, nil
		},
		Configs: []device.Config{device.Phone},
	}
	if err := r.Run(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestRun_ValidatesRequest(t *testing.T) {
	host := &fakeHost{}
	r, _ := newTestRunner(t, host, true)

	if err := r.Run(context.Background(), Request{Subject: func() (View, error) { return nil, nil }}); err == nil {
		t.Error("nameless request accepted")
	}
	if err := r.Run(context.Background(), Request{Name: "X"}); err == nil {
		t.Error("request without subject factory accepted")
	}
}

func TestStaticHost(t *testing.T) {
	h := StaticHost{}
	if err := h.SetAnimationsEnabled(false); err != nil {
		t.Errorf("SetAnimationsEnabled: %v", err)
	}
	if _, err := h.MountWindow(nil, device.Size{}); err == nil {
		t.Error("static host mounted a window")
	}
}
