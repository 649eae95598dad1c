package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/filmscan/scantag/internal/config"
	"github.com/filmscan/scantag/internal/exiftool"
	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/progress"
	"github.com/filmscan/scantag/internal/runner"
	"github.com/filmscan/scantag/internal/scanner"
	"github.com/filmscan/scantag/internal/worker"
	"github.com/spf13/cobra"
)

func newWriteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write [flags] <base-dir> <output-path>",
		Short: "Resolve and write EXIF metadata onto scanned images",
		Long: `Resolves metadata for every matching image under the base directory from
directory metafiles, the encoded file name and the scanner's embedded tags,
applies geometric corrections when requested, and writes the result to the
output location through exiftool.

The output path is a template; placeholders like {Make} or {ISO?03d} are
substituted per image. An existing directory mirrors the base directory
structure into it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd.Context(), cfg, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&cfg.Write.TempDir, "tempdir", "", "Directory for temporary working copies (default: next to each source file)")
	cmd.Flags().StringVar(&cfg.Write.ExiftoolPath, "exiftool", "", "Path to exiftool")
	cmd.Flags().IntVar(&cfg.Write.DirDepth, "dirdepth", -1, "Max directory depth, -1 for no limit")
	cmd.Flags().StringVar(&cfg.Write.Metafile, "metafile", "metadata.txt", "Metadata file name, absolute path for a single shared file")
	cmd.Flags().StringVar(&cfg.Write.Wildcards, "wildcards", "*.tif,*.tiff", "Comma-separated list of file patterns")
	cmd.Flags().IntVar(&cfg.Write.Concurrency, "concurrency", 4, "Number of files processed in parallel")
	cmd.Flags().BoolVar(&cfg.Write.DryRun, "dry-run", false, "Resolve everything but modify no files")

	return cmd
}

func runWrite(ctx context.Context, cfg *config.Config, baseDir, outputPath string) error {
	var err error
	if cfg.Write.BaseDir, err = filepath.Abs(baseDir); err != nil {
		return err
	}
	info, err := os.Stat(cfg.Write.BaseDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("base directory %s does not exist", baseDir)
	}

	// an existing directory as output mirrors the base directory layout
	cfg.Write.OutputPath = outputPath
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		abs, err := filepath.Abs(outputPath)
		if err != nil {
			return err
		}
		cfg.Write.OutputPath = filepath.Join(abs, "{Extra:FilePath}")
	}

	bin, err := exiftool.Find(cfg.Write.ExiftoolPath)
	if err != nil {
		return err
	}
	tool := exiftool.NewRunner(bin)

	probe, err := scanner.New(bin)
	if err != nil {
		return err
	}
	defer probe.Close()

	logger.Info("Exiftool        : %s", bin)
	logger.Info("Base directory  : %s", cfg.Write.BaseDir)
	logger.Info("Directory depth : %d", cfg.Write.DirDepth)
	logger.Info("Wildcards       : %s", cfg.Write.Wildcards)
	logger.Info("Metafile        : %s", cfg.Write.Metafile)
	logger.Info("Output          : %s", cfg.Write.OutputPath)

	pool := worker.NewPool(cfg.Write.Concurrency)
	reporter := progress.New()

	run := runner.New(ctx, cfg, probe, tool, pool, reporter)
	return run.Run()
}
