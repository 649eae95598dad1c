package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscan/scantag/internal/config"
	"github.com/filmscan/scantag/internal/metafile"
	"github.com/filmscan/scantag/internal/resolver"
	"github.com/filmscan/scantag/internal/tags"
)

func testRunner(t *testing.T, base string) *Runner {
	t.Helper()
	cfg := config.New()
	cfg.Write.BaseDir = base
	return &Runner{
		cfg:      cfg,
		resolver: resolver.New(tags.DefaultSchema()),
		cache:    metafile.NewCache(),
	}
}

func TestDirLayersChain(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "k64", "strip3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "metadata.txt"),
		[]byte("ISO = 200\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "k64", "metadata.txt"),
		[]byte("ISO = 400\n"), 0o644))

	r := testRunner(t, base)
	layers := r.dirLayers("k64/strip3/scan.tif")
	require.Len(t, layers, 3, "base, k64 and strip3 each contribute a slot")
	require.NotNil(t, layers[0])
	assert.True(t, layers[0].GetOr("ISO", tags.Unset()).Equal(tags.Int(200)))
	require.NotNil(t, layers[1])
	assert.True(t, layers[1].GetOr("ISO", tags.Unset()).Equal(tags.Int(400)))
	assert.Nil(t, layers[2], "strip3 has no metafile")
}

func TestDirLayersAbsoluteMetafile(t *testing.T) {
	base := t.TempDir()
	shared := filepath.Join(t.TempDir(), "shared.txt")
	require.NoError(t, os.WriteFile(shared, []byte("ISO = 800\n"), 0o644))

	r := testRunner(t, base)
	r.cfg.Write.Metafile = shared
	layers := r.dirLayers("deep/nested/scan.tif")
	require.Len(t, layers, 1)
	assert.True(t, layers[0].GetOr("ISO", tags.Unset()).Equal(tags.Int(800)))
}

func TestOutputPathRelativeToSource(t *testing.T) {
	r := testRunner(t, t.TempDir())
	r.cfg.Write.OutputPath = "done/{ISO}.tif"

	m := tags.NewMap()
	m.Set("ISO", tags.Int(200))

	src := filepath.Join(r.cfg.Write.BaseDir, "roll", "scan.tif")
	out, err := r.outputPath(src, m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.cfg.Write.BaseDir, "roll", "done", "200.tif"), out)
}

func TestOutputPathAbsoluteTemplate(t *testing.T) {
	r := testRunner(t, t.TempDir())
	target := t.TempDir()
	r.cfg.Write.OutputPath = filepath.Join(target, "{Extra:FilePath}")

	m := tags.NewMap()
	m.Set("Extra:FilePath", tags.String("roll/scan.tif"))

	out, err := r.outputPath("/anywhere/scan.tif", m)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "roll", "scan.tif"), out)
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, moveFile(src, dst))
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
