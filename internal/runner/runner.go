// Package runner drives the metadata write pipeline over a directory of
// scan files.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filmscan/scantag/internal/config"
	"github.com/filmscan/scantag/internal/exiftool"
	"github.com/filmscan/scantag/internal/filename"
	"github.com/filmscan/scantag/internal/history"
	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/metafile"
	"github.com/filmscan/scantag/internal/pathtmpl"
	"github.com/filmscan/scantag/internal/progress"
	"github.com/filmscan/scantag/internal/resolver"
	"github.com/filmscan/scantag/internal/scanner"
	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/internal/transform"
	"github.com/filmscan/scantag/internal/walker"
	"github.com/filmscan/scantag/internal/worker"
)

// Runner processes every matching file under the base directory
type Runner struct {
	ctx      context.Context
	cfg      *config.Config
	resolver *resolver.Resolver
	cache    *metafile.Cache
	probe    *scanner.Probe
	tool     *exiftool.Runner
	walker   *walker.Walker
	pool     *worker.Pool
	progress *progress.Reporter
}

// New creates a new Runner
func New(ctx context.Context, cfg *config.Config, probe *scanner.Probe,
	tool *exiftool.Runner, pool *worker.Pool, reporter *progress.Reporter) *Runner {
	return &Runner{
		ctx:      ctx,
		cfg:      cfg,
		resolver: resolver.New(tags.DefaultSchema()),
		cache:    metafile.NewCache(),
		probe:    probe,
		tool:     tool,
		walker:   walker.New(cfg.Write.Wildcards, cfg.Write.DirDepth),
		pool:     pool,
		progress: reporter,
	}
}

// Run processes the whole base directory
func (r *Runner) Run() error {
	files, err := r.walker.List(r.cfg.Write.BaseDir)
	if err != nil {
		return fmt.Errorf("scanning base directory: %w", err)
	}

	r.progress.Start(len(files))

	for _, rel := range files {
		if r.ctx.Err() != nil {
			return r.ctx.Err()
		}
		rel := rel
		r.pool.Submit(func() {
			if err := r.processFile(rel); err != nil {
				logger.Error("Failed to process %s: %v", rel, err)
				r.progress.Error(rel, err)
			} else {
				r.progress.Complete(rel)
			}
		})
	}

	r.pool.Wait()
	r.progress.Finish()

	if n := len(r.progress.Failures()); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	return nil
}

// dirLayers loads the metafile contribution for every directory on the path
// from the base down to the file's own directory. An absolute metafile path
// is a single shared contribution instead.
func (r *Runner) dirLayers(rel string) []*tags.Map {
	mf := r.cfg.Write.Metafile
	if filepath.IsAbs(mf) {
		layer, _ := r.cache.Load(mf)
		return []*tags.Map{layer}
	}

	var layers []*tags.Map
	dir := r.cfg.Write.BaseDir
	layer, _ := r.cache.Load(filepath.Join(dir, mf))
	layers = append(layers, layer)
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if part == "." || part == "" {
			continue
		}
		dir = filepath.Join(dir, part)
		layer, _ := r.cache.Load(filepath.Join(dir, mf))
		layers = append(layers, layer)
	}
	return layers
}

// processFile runs one image through the pipeline: merge the metadata
// sources, transform or copy the image into place, autofill, then hand the
// remaining tags to the metadata tool.
func (r *Runner) processFile(rel string) error {
	srcPath := filepath.Join(r.cfg.Write.BaseDir, filepath.FromSlash(rel))

	fileTags, err := filename.Decode(rel)
	if err != nil {
		return err
	}
	scan, err := r.probe.Read(srcPath)
	if err != nil {
		return fmt.Errorf("probing scanner metadata: %w", err)
	}

	m := r.resolver.Merge(r.dirLayers(rel), fileTags, scan.Tags)
	history.Compose(m)

	params, transformEnabled, err := transform.FromTags(m)
	if err != nil {
		return err
	}
	m.Delete(tags.TagTransformEnabled)
	m.DeletePrefixes("ImageTransform:")

	workPath := srcPath
	var cleanup func()
	if !r.cfg.Write.DryRun {
		workPath, cleanup, err = r.stage(srcPath, transformEnabled, params)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	env := resolver.Env{
		Now: time.Now,
		ImageSize: func() (int, int, error) {
			return transform.Size(workPath)
		},
		ModifyDate: scan.ModifyDate,
	}
	if err := resolver.Autofill(m, env); err != nil {
		return err
	}
	if err := resolver.Finalize(m); err != nil {
		return err
	}

	outPath, err := r.outputPath(srcPath, m)
	if err != nil {
		return err
	}

	args, err := exiftool.BuildArgs(m, r.resolver.Schema())
	if err != nil {
		return err
	}

	if r.cfg.Write.DryRun {
		logger.Info("DRY RUN: %s -> %s (%d tag assignments, transform=%v)",
			rel, outPath, len(args), transformEnabled)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	if err := moveFile(workPath, outPath); err != nil {
		return err
	}
	if err := r.tool.Apply(r.ctx, outPath, args); err != nil {
		return err
	}
	logger.Info("%s -> %s", rel, outPath)
	return nil
}

// stage produces the working copy in the temp directory. With transforms
// enabled the image is re-encoded and its metadata restored from the source;
// otherwise the source is copied as-is.
func (r *Runner) stage(srcPath string, transformEnabled bool, params transform.Params) (string, func(), error) {
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tmp, err := os.CreateTemp(r.tempDir(srcPath), stem+"-*.tmp")
	if err != nil {
		return "", nil, fmt.Errorf("creating working copy: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	cleanup := func() { os.Remove(tmpPath) }

	if transformEnabled {
		if err := transform.ApplyFile(srcPath, tmpPath, params); err != nil {
			cleanup()
			return "", nil, err
		}
		// the re-encode drops the source metadata, copy it back
		if err := r.tool.CopyAll(r.ctx, srcPath, tmpPath); err != nil {
			cleanup()
			return "", nil, err
		}
	} else {
		if err := copyFile(srcPath, tmpPath); err != nil {
			cleanup()
			return "", nil, err
		}
	}
	return tmpPath, cleanup, nil
}

func (r *Runner) tempDir(srcPath string) string {
	if r.cfg.Write.TempDir != "" {
		return r.cfg.Write.TempDir
	}
	return filepath.Dir(srcPath)
}

// outputPath expands the output template. Relative templates resolve against
// the source file's own directory.
func (r *Runner) outputPath(srcPath string, m *tags.Map) (string, error) {
	out, err := pathtmpl.Build(r.cfg.Write.OutputPath, m)
	if err != nil {
		return "", err
	}
	out = filepath.FromSlash(out)
	if !filepath.IsAbs(out) {
		out = filepath.Join(filepath.Dir(srcPath), out)
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames when possible and falls back to copy-and-delete for
// cross-device targets.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
