package transform

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/filmscan/scantag/internal/tags"
)

// gradient builds a 4x3 image with a unique color per pixel so positions can
// be traced through the transforms.
func gradient() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 0, A: 255})
		}
	}
	return img
}

func at(t *testing.T, img image.Image, x, y int) color.NRGBA {
	t.Helper()
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestApplyImageCrop(t *testing.T) {
	out, err := ApplyImage(gradient(), Params{Left: 1, Top: 1, Width: 2, Height: 2})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 10, A: 255}, at(t, out, 0, 0))
	assert.Equal(t, color.NRGBA{R: 20, G: 20, A: 255}, at(t, out, 1, 1))
}

func TestApplyImageCropToEdge(t *testing.T) {
	// zero width and height extend to the image edges
	out, err := ApplyImage(gradient(), Params{Left: 2, Top: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 20, G: 10, A: 255}, at(t, out, 0, 0))
}

func TestApplyImageCropOutOfBounds(t *testing.T) {
	_, err := ApplyImage(gradient(), Params{Left: 3, Top: 0, Width: 2})
	assert.Error(t, err)
	_, err = ApplyImage(gradient(), Params{Left: -1})
	assert.Error(t, err)
}

func TestApplyImageRotate90CW(t *testing.T) {
	out, err := ApplyImage(gradient(), Params{Rotate: 90})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 4), out.Bounds())
	// the source top-left lands in the top-right corner
	assert.Equal(t, color.NRGBA{R: 0, G: 0, A: 255}, at(t, out, 2, 0))
	// the source bottom-left lands in the top-left corner
	assert.Equal(t, color.NRGBA{R: 0, G: 20, A: 255}, at(t, out, 0, 0))
}

func TestApplyImageRotate90CCW(t *testing.T) {
	out, err := ApplyImage(gradient(), Params{Rotate: 270})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 4), out.Bounds())
	// the source top-right lands in the top-left corner
	assert.Equal(t, color.NRGBA{R: 30, G: 0, A: 255}, at(t, out, 0, 0))
}

func TestApplyImageRotate180(t *testing.T) {
	out, err := ApplyImage(gradient(), Params{Rotate: 180})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 3), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 30, G: 20, A: 255}, at(t, out, 0, 0))
}

func TestApplyImageRejectsOddAngles(t *testing.T) {
	_, err := ApplyImage(gradient(), Params{Rotate: 45})
	assert.Error(t, err)
}

func TestApplyImageFlips(t *testing.T) {
	out, err := ApplyImage(gradient(), Params{FlipH: true})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 30, G: 0, A: 255}, at(t, out, 0, 0))

	out, err = ApplyImage(gradient(), Params{FlipV: true})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0, G: 20, A: 255}, at(t, out, 0, 0))
}

func TestApplyImagePreservesBitDepth(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 0xbeef})
	out, err := ApplyImage(img, Params{FlipH: true})
	require.NoError(t, err)
	g16, ok := out.(*image.Gray16)
	require.True(t, ok, "16-bit grayscale stays 16-bit grayscale")
	assert.Equal(t, color.Gray16{Y: 0xbeef}, g16.Gray16At(1, 0))
}

func TestApplyRoundTripThroughTIFF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, gradient(), nil))

	var out bytes.Buffer
	err := Apply(bytes.NewReader(buf.Bytes()), &out, Params{Rotate: 180, Compression: "deflate"})
	require.NoError(t, err)

	img, err := tiff.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 30, G: 20, A: 255}, at(t, img, 0, 0))
}

func TestFromTags(t *testing.T) {
	m := tags.NewMap()
	m.Set(tags.TagTransformEnabled, tags.Bool(true))
	m.Set(tags.TagTransformCrop, tags.List(tags.Int(82), tags.Int(126), tags.Int(4096), tags.Int(2656)))
	m.Set(tags.TagTransformRotate, tags.Int(90))
	m.Set(tags.TagTransformFlip, tags.List(tags.Bool(true), tags.Bool(false)))
	m.Set(tags.TagTransformCompr, tags.List(tags.String("deflate")))

	p, enabled, err := FromTags(m)
	require.NoError(t, err)
	require.True(t, enabled)
	assert.Equal(t, Params{
		Left: 82, Top: 126, Width: 4096, Height: 2656,
		Rotate: 90, FlipH: true, FlipV: false,
		Compression: "deflate",
	}, p)
}

func TestFromTagsDisabled(t *testing.T) {
	m := tags.NewMap()
	m.Set(tags.TagTransformRotate, tags.Int(90))
	_, enabled, err := FromTags(m)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestFromTagsUnsetCropSlots(t *testing.T) {
	m := tags.NewMap()
	m.Set(tags.TagTransformEnabled, tags.Bool(true))
	m.Set(tags.TagTransformCrop, tags.List(tags.Int(10), tags.Int(20), tags.Unset(), tags.Unset()))

	p, enabled, err := FromTags(m)
	require.NoError(t, err)
	require.True(t, enabled)
	assert.Equal(t, 10, p.Left)
	assert.Equal(t, 0, p.Width, "unset slots keep the to-the-edge default")
}

func TestCompressionNames(t *testing.T) {
	for _, name := range []string{"", "none", "deflate", "zip"} {
		_, err := compressionType(name)
		assert.NoError(t, err, name)
	}
	_, err := compressionType("lzw")
	assert.Error(t, err)
}
