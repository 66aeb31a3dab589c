package artifact

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/cespare/xxhash/v2"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EncodePNG serializes the artifact as a best-compression PNG.
// PNG is the only fixture format the store writes: lossless, so the
// comparator sees exactly the pixels that were recorded.
func EncodePNG(a *Artifact) ([]byte, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, a.Image); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads any supported reference image (png, gif, jpeg, bmp,
// tiff, webp) and wraps it in an Artifact at the given scale.
func Decode(r io.Reader, scale float64) (*Artifact, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return New(img, scale), nil
}

// Hash computes the xxHash64 of data as a hex string truncated to
// hexLen chars. 16 hex chars (64 bits) is collision-safe for practical
// fixture counts.
func Hash(data []byte, hexLen int) string {
	h := xxhash.Sum64(data)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (56 - 8*i))
	}
	full := hex.EncodeToString(b)
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}

// HashImage hashes the raw NRGBA pixel bytes of an image. Used as the
// byte-identical fast path before a tolerant pixel walk.
func HashImage(img image.Image) uint64 {
	return xxhash.Sum64(ToNRGBA(img).Pix)
}
