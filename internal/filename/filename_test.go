package filename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

func get(t *testing.T, m *tags.Map, key string) tags.Value {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "tag %s not decoded", key)
	return v
}

func TestDecodeIdentityOnly(t *testing.T) {
	m, err := Decode("rolls/k64/scan0012.tif")
	require.NoError(t, err)

	assert.True(t, get(t, m, "Extra:FileID").Equal(tags.String("scan0012")))
	assert.True(t, get(t, m, "Extra:FileNameBase").Equal(tags.String("scan0012")))
	assert.True(t, get(t, m, "Extra:FileNameExtension").Equal(tags.String("tif")))
	assert.True(t, get(t, m, "Extra:FilePath").Equal(tags.String("rolls/k64/scan0012.tif")))
	assert.True(t, get(t, m, "Extra:FileDirectory").Equal(tags.String("rolls/k64")))
	assert.False(t, m.Has("ISO"))
}

func TestDecodeBlockSplitsAtFirstSeparator(t *testing.T) {
	m, err := Decode("scan__I200__H.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "Extra:FileID").Equal(tags.String("scan")))
	assert.True(t, get(t, m, "ISO").Equal(tags.Int(200)))
}

func TestDecodeFullBlock(t *testing.T) {
	m, err := Decode("scan0012__Fk64-12_S3-2_N12_I200_A5.6_T'125_L50_MC-325EF@Panasonic.tif")
	require.NoError(t, err)

	assert.True(t, get(t, m, "ReelName").Equal(tags.String("k64")))
	assert.True(t, get(t, m, "Extra:FilmID").Equal(tags.String("k64")))
	assert.True(t, get(t, m, "Extra:FilmFrameNumber").Equal(tags.Int(12)))
	assert.True(t, get(t, m, "Extra:StripID").Equal(tags.String("3")))
	assert.True(t, get(t, m, "Extra:StripFrameNumber").Equal(tags.Int(2)))
	assert.True(t, get(t, m, "ImageNumber").Equal(tags.Int(12)))
	assert.True(t, get(t, m, "ISO").Equal(tags.Int(200)))
	assert.True(t, get(t, m, "FNumber").Equal(tags.Float(5.6)))
	assert.True(t, get(t, m, "ExposureTime").Equal(tags.String("1/125")))
	assert.True(t, get(t, m, "FocalLength").Equal(tags.Int(50)))
	assert.True(t, get(t, m, "Model").Equal(tags.String("C-325EF")))
	assert.True(t, get(t, m, "Make").Equal(tags.String("Panasonic")))
}

func TestDecodeCropEnablesTransform(t *testing.T) {
	m, err := Decode("scan__C82-126-4096-2656.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, tags.TagTransformCrop).Equal(
		tags.List(tags.Int(82), tags.Int(126), tags.Int(4096), tags.Int(2656))))
	assert.True(t, get(t, m, tags.TagTransformEnabled).Equal(tags.Bool(true)))

	// partial tuples carry only the leading components
	m, err = Decode("scan__C82-126.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, tags.TagTransformCrop).Equal(
		tags.List(tags.Int(82), tags.Int(126))))
}

func TestDecodeRotateAndFlip(t *testing.T) {
	m, err := Decode("scan__R90CWV.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, tags.TagTransformRotate).Equal(tags.Int(90)))
	assert.True(t, get(t, m, tags.TagTransformFlip).Equal(
		tags.List(tags.Bool(false), tags.Bool(true))))
	assert.True(t, get(t, m, tags.TagTransformEnabled).Equal(tags.Bool(true)))

	m, err = Decode("scan__R90CCWH.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, tags.TagTransformRotate).Equal(tags.Int(270)))
	assert.True(t, get(t, m, tags.TagTransformFlip).Equal(
		tags.List(tags.Bool(true), tags.Bool(false))))
}

func TestDecodeDateTimeAndOffset(t *testing.T) {
	m, err := Decode("scan__D2024-07-14-15-30@3-30.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "DateTimeOriginal").Equal(
		tags.String("2024:07:14 15:30:00")))
	assert.True(t, get(t, m, "OffsetTimeOriginal").Equal(tags.String("+03:30")))

	m, err = Decode("scan__D2024@m5.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "OffsetTimeOriginal").Equal(tags.String("-05:00")))
}

func TestDecodeLocation(t *testing.T) {
	m, err := Decode("scan__GN55.75,E37.62,120.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "GPSLatitude").Equal(tags.Float(55.75)))
	assert.True(t, get(t, m, "GPSLongitude").Equal(tags.Float(37.62)))
	assert.True(t, get(t, m, "GPSAltitude").Equal(tags.Float(120)))

	m, err = Decode("scan__GS12.5,W66.9.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "GPSLatitude").Equal(tags.Float(-12.5)))
	assert.True(t, get(t, m, "GPSLongitude").Equal(tags.Float(-66.9)))

	m, err = Decode("scan__Gm10.1,m20.2.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "GPSLatitude").Equal(tags.Float(-10.1)))
	assert.True(t, get(t, m, "GPSLongitude").Equal(tags.Float(-20.2)))
}

func TestDecodeFreeText(t *testing.T) {
	m, err := Decode("scan__Hsunset&#95;at&#95;lake_Elong&#95;walk_Ufaded.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "ImageTitle").Equal(tags.String("sunset_at_lake")))
	assert.True(t, get(t, m, "ImageDescription").Equal(tags.String("long_walk")))
	assert.True(t, get(t, m, "UserComment").Equal(tags.String("faded")))
}

func TestDecodeFlashAndOrientation(t *testing.T) {
	m, err := Decode("scan__X25_O90CW.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "EXIF:Flash").Equal(tags.String("Auto, Fired")))
	assert.True(t, get(t, m, "Orientation").Equal(tags.String("Rotate 90 CW")))
}

func TestDecodeRawOverride(t *testing.T) {
	m, err := Decode("scan__WArtist@Jane&#95;Doe.tif")
	require.NoError(t, err)
	assert.True(t, get(t, m, "Artist").Equal(tags.String("Jane_Doe")))
}

func TestDecodeErrors(t *testing.T) {
	cases := []string{
		"scan__Iabc.tif",            // ISO not an integer
		"scan__X2.tif",              // unknown flash code
		"scan__O9.tif",              // orientation out of range
		"scan__C1-2-3-4-5.tif",      // too many crop components
		"scan__Cm1-2.tif",           // negative crop
		"scan__Rquarter.tif",        // rotation not recognized
		"scan__D2024-07-14@99.tif",  // offset hours out of range
		"scan__G55.75.tif",          // longitude missing
		"scan__W@value.tif",         // override without a tag name
	}
	for _, name := range cases {
		_, err := Decode(name)
		require.Error(t, err, "expected %s to fail", name)
		var derr *common.FilenameDecodeError
		assert.ErrorAs(t, err, &derr, "%s", name)
	}
}
