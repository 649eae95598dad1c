// Package transform applies non-destructive geometric corrections — crop,
// rotate, flip — to a working copy of a scanned TIFF. The source file is
// only ever read.
package transform

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	"golang.org/x/image/tiff"

	"github.com/filmscan/scantag/internal/tags"
)

// Params describes one image's geometric corrections.
type Params struct {
	Left, Top     int
	Width, Height int // 0 means "to the edge" in that direction
	Rotate        int // clockwise degrees, multiple of 90
	FlipH, FlipV  bool
	Compression   string
}

// FromTags extracts transform parameters from the ImageTransform tag group.
// The second result reports whether the transform is enabled at all.
func FromTags(m *tags.Map) (Params, bool, error) {
	p := Params{Compression: "none"}
	if !m.GetOr(tags.TagTransformEnabled, tags.Bool(false)).Bool() {
		return p, false, nil
	}

	if v, ok := m.Get(tags.TagTransformCrop); ok && v.Kind() == tags.KindList {
		dims := []*int{&p.Left, &p.Top, &p.Width, &p.Height}
		for i, e := range v.List() {
			if i >= len(dims) {
				return p, false, fmt.Errorf("crop accepts at most 4 components")
			}
			if e.IsUnset() {
				continue // unspecified, distinct from an explicit 0
			}
			if !e.IsNumber() {
				return p, false, fmt.Errorf("crop component %d is not a number", i)
			}
			*dims[i] = int(e.Int64())
		}
	}
	if v, ok := m.Get(tags.TagTransformRotate); ok && v.IsNumber() {
		p.Rotate = int(v.Int64())
	}
	if v, ok := m.Get(tags.TagTransformFlip); ok && v.Kind() == tags.KindList {
		flips := v.List()
		if len(flips) > 0 {
			p.FlipH = flips[0].Bool()
		}
		if len(flips) > 1 {
			p.FlipV = flips[1].Bool()
		}
	}
	if v, ok := m.Get(tags.TagTransformCompr); ok {
		switch v.Kind() {
		case tags.KindString:
			p.Compression = v.Str()
		case tags.KindList:
			if len(v.List()) > 0 {
				p.Compression = v.List()[0].Str()
			}
		}
	}
	return p, true, nil
}

func compressionType(name string) (tiff.CompressionType, error) {
	switch name {
	case "", "none":
		return tiff.Uncompressed, nil
	case "deflate", "zip":
		return tiff.Deflate, nil
	default:
		return tiff.Uncompressed, fmt.Errorf("unsupported TIFF compression %q", name)
	}
}

// Apply decodes a TIFF from r, applies the corrections and encodes the
// result to w.
func Apply(r io.Reader, w io.Writer, p Params) error {
	img, err := tiff.Decode(r)
	if err != nil {
		return fmt.Errorf("decoding TIFF: %w", err)
	}
	out, err := ApplyImage(img, p)
	if err != nil {
		return err
	}
	ct, err := compressionType(p.Compression)
	if err != nil {
		return err
	}
	return tiff.Encode(w, out, &tiff.Options{Compression: ct})
}

// ApplyFile is Apply over file paths; the input is opened read-only.
func ApplyFile(inPath, outPath string, p Params) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := Apply(in, out, p); err != nil {
		out.Close()
		os.Remove(outPath)
		return err
	}
	return out.Close()
}

// ApplyImage performs the pixel operations: crop first, then rotation, then
// flips, matching the order corrections were recorded in.
func ApplyImage(img image.Image, p Params) (image.Image, error) {
	b := img.Bounds()
	w, h := p.Width, p.Height
	if w == 0 {
		w = b.Dx() - p.Left
	}
	if h == 0 {
		h = b.Dy() - p.Top
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("crop region size is invalid")
	}
	if p.Left < 0 || p.Top < 0 || p.Left+w > b.Dx() || p.Top+h > b.Dy() {
		return nil, fmt.Errorf("crop region is outside image boundaries")
	}
	if p.Rotate%90 != 0 {
		return nil, fmt.Errorf("rotation must be a multiple of 90 degrees")
	}

	out := img
	if p.Left != 0 || p.Top != 0 || w != b.Dx() || h != b.Dy() {
		out = crop(out, p.Left, p.Top, w, h)
	}
	if turns := ((p.Rotate/90)%4 + 4) % 4; turns != 0 {
		out = rotate(out, turns)
	}
	if p.FlipH {
		out = flip(out, true)
	}
	if p.FlipV {
		out = flip(out, false)
	}
	return out, nil
}

// newLike allocates a destination of the same concrete pixel format so 8-bit
// and 16-bit samples survive the copy unchanged.
func newLike(src image.Image, w, h int) draw.Image {
	r := image.Rect(0, 0, w, h)
	switch src.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	case *image.RGBA:
		return image.NewRGBA(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	case *image.RGBA64:
		return image.NewRGBA64(r)
	default:
		return image.NewNRGBA64(r)
	}
}

func crop(src image.Image, left, top, w, h int) image.Image {
	b := src.Bounds()
	dst := newLike(src, w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(x, y, src.At(b.Min.X+left+x, b.Min.Y+top+y))
		}
	}
	return dst
}

func rotate(src image.Image, quarterTurnsCW int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	var dst draw.Image
	switch quarterTurnsCW {
	case 1: // 90 CW
		dst = newLike(src, sh, sw)
		for y := 0; y < sw; y++ {
			for x := 0; x < sh; x++ {
				dst.Set(x, y, src.At(b.Min.X+y, b.Min.Y+sh-1-x))
			}
		}
	case 2:
		dst = newLike(src, sw, sh)
		for y := 0; y < sh; y++ {
			for x := 0; x < sw; x++ {
				dst.Set(x, y, src.At(b.Min.X+sw-1-x, b.Min.Y+sh-1-y))
			}
		}
	case 3: // 90 CCW
		dst = newLike(src, sh, sw)
		for y := 0; y < sw; y++ {
			for x := 0; x < sh; x++ {
				dst.Set(x, y, src.At(b.Min.X+sw-1-y, b.Min.Y+x))
			}
		}
	default:
		return src
	}
	return dst
}

func flip(src image.Image, horizontal bool) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	dst := newLike(src, sw, sh)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if horizontal {
				dst.Set(x, y, src.At(b.Min.X+sw-1-x, b.Min.Y+y))
			} else {
				dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+sh-1-y))
			}
		}
	}
	return dst
}

// Size reads the pixel dimensions of a TIFF without decoding the raster.
func Size(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := tiff.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
