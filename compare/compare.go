// Package compare matches captured artifacts against reference
// artifacts. The Comparator interface keeps the harness core free of
// any specific diff backend; Pixel is the default implementation.
package compare

import (
	"fmt"

	"github.com/AnyUserName/vizreg/artifact"
)

// Comparator decides whether a captured artifact matches a reference.
type Comparator interface {
	Compare(got, want *artifact.Artifact) (Result, error)
}

// Result is the outcome of one comparison.
type Result struct {
	Matched bool

	// MatchedFraction is the share of pixels within tolerance, 0..1.
	MatchedFraction float64

	// DiffCount is the number of pixels outside tolerance.
	DiffCount int

	// DiffPercent is DiffCount as a percentage of total pixels.
	DiffPercent float64

	// SizeMismatch is set when the two artifacts have different
	// dimensions; no pixels are compared in that case.
	SizeMismatch bool
}

// Verdict buckets the result for reporting.
func (r Result) Verdict() string {
	switch {
	case r.SizeMismatch:
		return "size_mismatch"
	case r.DiffPercent == 0:
		return "identical"
	case r.DiffPercent < 5:
		return "minor_changes"
	case r.DiffPercent < 25:
		return "major_changes"
	default:
		return "completely_different"
	}
}

// Pixel compares artifacts pixel by pixel with a per-pixel color
// tolerance and an overall matched-fraction threshold.
type Pixel struct {
	// Precision is the fraction of pixels that must be within
	// tolerance for a match, 0..1. Zero means 1 (all pixels).
	Precision float64

	// PerceptualPrecision controls the per-pixel tolerance: a pixel
	// matches when its largest channel delta is at most
	// (1-PerceptualPrecision)*255. Zero means 1 (bit-exact pixels).
	// Rendering backends that cannot guarantee bit-exact output across
	// GPU implementations run with a value below 1.
	PerceptualPrecision float64
}

// Compare implements Comparator.
func (p Pixel) Compare(got, want *artifact.Artifact) (Result, error) {
	if got == nil || want == nil || got.Image == nil || want.Image == nil {
		return Result{}, fmt.Errorf("compare: nil artifact")
	}

	if got.Width != want.Width || got.Height != want.Height {
		return Result{SizeMismatch: true, DiffPercent: 100}, nil
	}

	a := artifact.ToNRGBA(got.Image)
	b := artifact.ToNRGBA(want.Image)

	// Byte-identical fast path.
	if artifact.HashImage(a) == artifact.HashImage(b) {
		return Result{Matched: true, MatchedFraction: 1}, nil
	}

	precision := p.Precision
	if precision <= 0 {
		precision = 1
	}
	perceptual := p.PerceptualPrecision
	if perceptual <= 0 {
		perceptual = 1
	}
	tolerance := uint8((1 - perceptual) * 255)

	total := got.Width * got.Height
	diff := 0
	for i := 0; i+3 < len(a.Pix) && i+3 < len(b.Pix); i += 4 {
		if channelDelta(a.Pix[i], b.Pix[i]) > tolerance ||
			channelDelta(a.Pix[i+1], b.Pix[i+1]) > tolerance ||
			channelDelta(a.Pix[i+2], b.Pix[i+2]) > tolerance {
			diff++
		}
	}

	matched := float64(total-diff) / float64(total)
	return Result{
		Matched:         matched >= precision,
		MatchedFraction: matched,
		DiffCount:       diff,
		DiffPercent:     float64(diff) / float64(total) * 100,
	}, nil
}

func channelDelta(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
