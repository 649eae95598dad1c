package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

func layer(pairs ...interface{}) *tags.Map {
	m := tags.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(tags.Value))
	}
	return m
}

func testEnv() Env {
	loc := time.FixedZone("UTC+3", 3*3600)
	return Env{
		Now:        func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, loc) },
		ImageSize:  func() (int, int, error) { return 4096, 2656, nil },
		ModifyDate: "2025:11:02 21:14:05",
	}
}

func TestMergePrecedence(t *testing.T) {
	r := New(tags.DefaultSchema())

	dir1 := layer("ISO", tags.Int(200), "Make", tags.String("Nikon"))
	dir2 := layer("ISO", tags.Int(400))
	file := layer("ISO", tags.Int(800))

	m := r.Merge([]*tags.Map{dir1, dir2}, file, nil)
	assert.True(t, m.GetOr("ISO", tags.Unset()).Equal(tags.Int(800)))
	assert.True(t, m.GetOr("Make", tags.Unset()).Equal(tags.String("Nikon")))
}

func TestMergeSkipsNilLayers(t *testing.T) {
	r := New(tags.DefaultSchema())
	m := r.Merge([]*tags.Map{nil, layer("ISO", tags.Int(200)), nil}, nil, nil)
	assert.True(t, m.GetOr("ISO", tags.Unset()).Equal(tags.Int(200)))
}

func TestMergeLockedSchemaDropsUnknown(t *testing.T) {
	r := New(tags.DefaultSchema())

	locking := layer(tags.TagLockTagList, tags.Bool(true))
	extra := layer("NotARealTag", tags.String("x"), "Scanner:Model", tags.String("LS-50 ED"))

	m := r.Merge([]*tags.Map{locking, extra}, nil, nil)
	assert.False(t, m.Has("NotARealTag"))
	assert.True(t, m.Has("Scanner:Model"), "scanner tags bypass the lock")
}

func TestMergeEmbeddedIgnoresLock(t *testing.T) {
	r := New(tags.DefaultSchema())
	locking := layer(tags.TagLockTagList, tags.Bool(true))
	embedded := layer("Scanner:Software:Name", tags.String("NikonScan 4.0.2"))

	m := r.Merge([]*tags.Map{locking}, nil, embedded)
	assert.True(t, m.Has("Scanner:Software:Name"))
}

func TestConditionalPanasonic(t *testing.T) {
	r := New(tags.DefaultSchema())
	file := layer(
		"Make", tags.String("Panasonic"),
		"Model", tags.String("C-325EF"),
	)

	m := r.Merge(nil, file, nil)
	assert.True(t, m.GetOr("EXIF:Flash", tags.Unset()).Equal(tags.String("Auto, Did not fire")))
	assert.True(t, m.GetOr("ExposureTime", tags.Unset()).Equal(tags.String("1/130")))
	assert.True(t, m.GetOr("FNumber", tags.Unset()).Equal(tags.Float(9.0)),
		"aperture follows the flash state")
	assert.True(t, m.GetOr("LensMake", tags.Unset()).Equal(tags.String("Panasonic")))

	// with a fired flash the lens opens up
	file.Set("EXIF:Flash", tags.String("Auto, Fired"))
	m = r.Merge(nil, file, nil)
	assert.True(t, m.GetOr("FNumber", tags.Unset()).Equal(tags.Float(5.6)))
}

func TestConditionalLeavesOtherCameras(t *testing.T) {
	r := New(tags.DefaultSchema())
	file := layer("Make", tags.String("Canon"), "Model", tags.String("AE-1"))
	m := r.Merge(nil, file, nil)
	assert.Equal(t, tags.Optional, m.GetOr("ExposureTime", tags.Unset()).Marker())
}

func TestAutofillFrozenClock(t *testing.T) {
	r := New(tags.DefaultSchema())
	m := r.Merge(nil, layer(
		"Extra:FilmID", tags.String("k64"),
		"Extra:FilmFrameNumber", tags.Int(7),
		"Extra:StripID", tags.String("3"),
		"Extra:StripFrameNumber", tags.Int(2),
		"ExposureTime", tags.String("1/125"),
		"FNumber", tags.Float(5.6),
	), nil)

	require.NoError(t, Autofill(m, testEnv()))

	assert.True(t, m.GetOr("DocumentName", tags.Unset()).Equal(tags.String("k64-07_S3-2")))
	assert.True(t, m.GetOr("ModifyDate", tags.Unset()).Equal(tags.String("2026:08:30 12:00:00")))
	assert.True(t, m.GetOr("OffsetTime", tags.Unset()).Equal(tags.String("+03:00")))
	assert.True(t, m.GetOr("ShutterSpeedValue", tags.Unset()).Equal(tags.String("1/125")))
	assert.True(t, m.GetOr("ApertureValue", tags.Unset()).Equal(tags.Float(5.6)))
	assert.True(t, m.GetOr("ExifImageWidth", tags.Unset()).Equal(tags.Int(4096)))
	assert.True(t, m.GetOr("ExifImageHeight", tags.Unset()).Equal(tags.Int(2656)))
	assert.True(t, m.GetOr("CreateDate", tags.Unset()).Equal(tags.String("2025:11:02 21:14:05")))
	assert.True(t, m.GetOr("OffsetTimeDigitized", tags.Unset()).Equal(tags.String("+03:00")))
}

func TestAutofillDocumentNameNeedsIdentity(t *testing.T) {
	r := New(tags.DefaultSchema())
	m := r.Merge(nil, nil, nil)
	require.NoError(t, Autofill(m, testEnv()))
	assert.True(t, m.GetOr("DocumentName", tags.Unset()).Equal(tags.String("")))
}

func TestAutofillGeoRefs(t *testing.T) {
	r := New(tags.DefaultSchema())
	m := r.Merge(nil, layer(
		"GPSLatitude", tags.Float(-12.5),
		"GPSLongitude", tags.Float(37.62),
		"GPSAltitude", tags.Float(-30),
	), nil)
	require.NoError(t, Autofill(m, testEnv()))

	assert.True(t, m.GetOr("GPSLatitudeRef", tags.Unset()).Equal(tags.String("S")))
	assert.True(t, m.GetOr("GPSLatitude", tags.Unset()).Equal(tags.Float(12.5)))
	assert.True(t, m.GetOr("GPSLongitudeRef", tags.Unset()).Equal(tags.String("E")))
	assert.True(t, m.GetOr("GPSAltitudeRef", tags.Unset()).Equal(tags.String("Below Sea Level")))
	assert.True(t, m.GetOr("GPSAltitude", tags.Unset()).Equal(tags.Float(30)))
	assert.True(t, m.GetOr("GPSProcessingMethod", tags.Unset()).Equal(tags.String("MANUAL")))
}

func TestAutofillGeoRefsSkipWithoutCoordinates(t *testing.T) {
	r := New(tags.DefaultSchema())
	m := r.Merge(nil, nil, nil)
	require.NoError(t, Autofill(m, testEnv()))

	assert.Equal(t, tags.Skip, m.GetOr("GPSLatitudeRef", tags.Unset()).Marker())
	assert.Equal(t, tags.Skip, m.GetOr("GPSAltitudeRef", tags.Unset()).Marker())
	assert.Equal(t, tags.Skip, m.GetOr("GPSProcessingMethod", tags.Unset()).Marker())
}

func TestFinalizeEnforcesMarkers(t *testing.T) {
	m := layer("Make", tags.Sentinel(tags.Mandatory))
	err := Finalize(m)
	var merr *common.UnresolvedMandatoryTag
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "Make", merr.Tag)

	m = layer("CreateDate", tags.Sentinel(tags.Auto))
	err = Finalize(m)
	var aerr *common.UnresolvedAutoTag
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "CreateDate", aerr.Tag)

	assert.NoError(t, Finalize(layer(
		"OwnerName", tags.Sentinel(tags.Skip),
		"MakerNotes:All", tags.Sentinel(tags.Delete),
		"ISO", tags.Int(200),
	)))
}

func TestResolveEndToEnd(t *testing.T) {
	r := New(tags.DefaultSchema())
	file := layer(
		"Make", tags.String("Nikon"),
		"Model", tags.String("F80"),
		"DateTimeOriginal", tags.String("2003:06:01 10:00:00"),
		"ColorSpace", tags.String("sRGB"),
		"Extra:FilmID", tags.String("k64"),
		"Extra:StripID", tags.String("1"),
	)

	m, err := r.Resolve(nil, file, nil, testEnv())
	require.NoError(t, err)
	assert.True(t, m.GetOr("CreateDate", tags.Unset()).Equal(tags.String("2025:11:02 21:14:05")))

	// without an embedded scan date the capture file fails resolution
	env := testEnv()
	env.ModifyDate = ""
	_, err = r.Resolve(nil, file, nil, env)
	var aerr *common.UnresolvedAutoTag
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "CreateDate", aerr.Tag)
}
