package metafile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

func parseString(t *testing.T, src string) *tags.Map {
	t.Helper()
	m, err := Parse(strings.NewReader(src), "test")
	require.NoError(t, err)
	return m
}

func TestParseLiterals(t *testing.T) {
	m := parseString(t, `
# a comment
; another comment
Make = Panasonic
Model = 'C-325EF'
ISO = 200
FNumber = 5.6
Negative = -12
Hex = 0x1A
Script:LockTagList = True
Copyright = None
LensInfo = [34, 34.0, 5.6, 5.6]
Tuple = (1, 2)
Args = {'level': 9, 'name': 'deflate'}
Flash = <SKIP>
Empty =
`)

	assert.True(t, m.GetOr("Make", tags.Unset()).Equal(tags.String("Panasonic")))
	assert.True(t, m.GetOr("Model", tags.Unset()).Equal(tags.String("C-325EF")))
	assert.True(t, m.GetOr("ISO", tags.Unset()).Equal(tags.Int(200)))
	assert.True(t, m.GetOr("FNumber", tags.Unset()).Equal(tags.Float(5.6)))
	assert.True(t, m.GetOr("Negative", tags.Unset()).Equal(tags.Int(-12)))
	assert.True(t, m.GetOr("Hex", tags.Unset()).Equal(tags.Int(26)))
	assert.True(t, m.GetOr("Script:LockTagList", tags.Unset()).Equal(tags.Bool(true)))
	assert.True(t, m.GetOr("Copyright", tags.Unset()).IsUnset())
	assert.True(t, m.GetOr("LensInfo", tags.Unset()).Equal(
		tags.List(tags.Int(34), tags.Float(34), tags.Float(5.6), tags.Float(5.6))))
	assert.True(t, m.GetOr("Tuple", tags.Unset()).Equal(tags.List(tags.Int(1), tags.Int(2))))
	assert.True(t, m.GetOr("Args", tags.Unset()).Equal(tags.Struct(
		tags.MapEntry{Key: "level", Val: tags.Int(9)},
		tags.MapEntry{Key: "name", Val: tags.String("deflate")})))
	assert.Equal(t, tags.Skip, m.GetOr("Flash", tags.Unset()).Marker())
	assert.True(t, m.GetOr("Empty", tags.Unset()).Equal(tags.String("")))
}

func TestParseStringEscapes(t *testing.T) {
	m := parseString(t, `Comment = 'line one\nline two\t\'quoted\''`)
	assert.True(t, m.GetOr("Comment", tags.Unset()).Equal(
		tags.String("line one\nline two\t'quoted'")))
}

func TestParseBareWordsStayStrings(t *testing.T) {
	// a value that does not start like a literal is a plain string
	m := parseString(t, "Artist = John Smith\nTruthy = Truest")
	assert.True(t, m.GetOr("Artist", tags.Unset()).Equal(tags.String("John Smith")))
	assert.True(t, m.GetOr("Truthy", tags.Unset()).Equal(tags.String("Truest")))
}

func TestParseErrorCarriesLineNumber(t *testing.T) {
	src := "Make = Panasonic\nISO = 200\nLensInfo = [34, 34\n"
	_, err := Parse(strings.NewReader(src), "meta.txt")
	require.Error(t, err)
	var perr *common.MetafileParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "meta.txt", perr.File)
	assert.Equal(t, 3, perr.Line)
}

func TestParseEnablesTransformImplicitly(t *testing.T) {
	m := parseString(t, "ImageTransform:Rotate = 90")
	assert.True(t, m.GetOr(tags.TagTransformEnabled, tags.Unset()).Equal(tags.Bool(true)))

	// an explicit setting is left alone
	m = parseString(t, "ImageTransform:Enabled = False\nImageTransform:Rotate = 90")
	assert.True(t, m.GetOr(tags.TagTransformEnabled, tags.Unset()).Equal(tags.Bool(false)))
}

func TestCacheLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.txt")
	require.NoError(t, os.WriteFile(path, []byte("ISO = 200\n"), 0o644))

	c := NewCache()

	m, err := c.Load(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Nil(t, m, "a missing metafile contributes nothing")

	m, err = c.Load(path)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.GetOr("ISO", tags.Unset()).Equal(tags.Int(200)))

	// the cache serves the same parse even after the file changes
	require.NoError(t, os.WriteFile(path, []byte("ISO = 400\n"), 0o644))
	m2, err := c.Load(path)
	require.NoError(t, err)
	assert.Same(t, m, m2)
}

func TestCacheRemembersFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.txt")
	require.NoError(t, os.WriteFile(path, []byte("Crop = [1,\n"), 0o644))

	c := NewCache()
	_, err1 := c.Load(path)
	require.Error(t, err1)
	_, err2 := c.Load(path)
	assert.Equal(t, err1, err2)
}
