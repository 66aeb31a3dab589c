// Package artifact holds captured snapshot images and the
// post-processing step that normalizes them before storage.
package artifact

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Artifact is one captured image plus the geometry it was rendered at.
// Width and Height are pixels; Scale is the device pixel density the
// capture was taken at. Artifacts are transient: produced per capture,
// reduced, matched, and discarded.
type Artifact struct {
	Image  image.Image
	Width  int
	Height int
	Scale  float64
}

// New wraps an image in an Artifact, reading geometry off its bounds.
func New(img image.Image, scale float64) *Artifact {
	if scale <= 0 {
		scale = 1
	}
	b := img.Bounds()
	return &Artifact{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Scale:  scale,
	}
}

// PointSize returns the logical size in points (pixels ÷ scale).
func (a *Artifact) PointSize() (w, h int) {
	return int(float64(a.Width) / a.Scale), int(float64(a.Height) / a.Scale)
}

// Reduce redraws the artifact at its point size with the alpha channel
// flattened away. Full-resolution images with alpha are large to keep
// in source control as reference fixtures; linear interpolation keeps
// single-pixel borders visible (a 1px regression must still change
// pixels) while producing less entropy than high-quality resampling.
// Deterministic for identical input.
func Reduce(a *Artifact) *Artifact {
	w, h := a.PointSize()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	resized := imaging.Resize(a.Image, w, h, imaging.Linear)

	// Flatten onto opaque white: fixture PNGs carry no alpha channel.
	flat := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), resized, image.Point{}, draw.Over)

	return &Artifact{
		Image:  flat,
		Width:  w,
		Height: h,
		Scale:  a.Scale,
	}
}

// HasAlpha reports whether any pixel is not fully opaque, with
// fast paths for the common concrete image types.
func HasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.NRGBA:
		for i := 3; i < len(src.Pix); i += 4 {
			if src.Pix[i] < 255 {
				return true
			}
		}
		return false
	case *image.RGBA:
		for i := 3; i < len(src.Pix); i += 4 {
			if src.Pix[i] < 255 {
				return true
			}
		}
		return false
	case *image.YCbCr, *image.Gray:
		return false
	default:
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a < 65535 {
					return true
				}
			}
		}
		return false
	}
}

// ToNRGBA converts any image to NRGBA, returning the input unchanged
// when it already is one.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// validate rejects artifacts with degenerate geometry before they hit
// the comparator or the store.
func (a *Artifact) validate() error {
	if a.Image == nil {
		return fmt.Errorf("artifact has no image")
	}
	if a.Width < 1 || a.Height < 1 {
		return fmt.Errorf("artifact has degenerate size %dx%d", a.Width, a.Height)
	}
	return nil
}
