// Package exiftool drives the external metadata-editing tool: locating the
// binary, serializing a resolved tag mapping into its argument list, and
// running it against one target file at a time.
package exiftool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/pkg/common"
)

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "exiftool.exe"
	}
	return "exiftool"
}

// Find locates the exiftool executable: the explicit path if given, then the
// directory of this executable, then $PATH.
func Find(explicit string) (string, error) {
	if explicit != "" {
		info, err := os.Stat(explicit)
		if err == nil && info.IsDir() {
			explicit = filepath.Join(explicit, binaryName())
			info, err = os.Stat(explicit)
		}
		if err != nil {
			return "", fmt.Errorf("exiftool not found at %s: %w", explicit, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("exiftool path %s is a directory", explicit)
		}
		return explicit, nil
	}

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), binaryName())
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(binaryName())
	if err != nil {
		return "", fmt.Errorf("exiftool executable not found in explicit path, program directory or PATH")
	}
	return path, nil
}

// Runner executes exiftool commands.
type Runner struct {
	bin string
}

// NewRunner wraps an already-located binary path.
func NewRunner(bin string) *Runner {
	return &Runner{bin: bin}
}

// Binary returns the resolved executable path.
func (r *Runner) Binary() string { return r.bin }

// Apply writes the built tag assignments into target. The -E flag enables
// HTML entity decoding so escaped text fields survive the shell boundary.
func (r *Runner) Apply(ctx context.Context, target string, args []string) error {
	full := append([]string{"-E", "-overwrite_original"}, args...)
	full = append(full, target)
	return r.run(ctx, target, full)
}

// CopyAll restores every tag and the ICC profile from src into dst. Used
// after a geometric transform rewrote the pixels of the working copy.
func (r *Runner) CopyAll(ctx context.Context, src, dst string) error {
	args := []string{"-TagsFromFile", src, "-All:All", "-icc_profile", "-overwrite_original", dst}
	return r.run(ctx, dst, args)
}

func (r *Runner) run(ctx context.Context, target string, args []string) error {
	logger.Debug("exiftool %v", args)
	cmd := exec.CommandContext(ctx, r.bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &common.ExternalToolFailure{
			File: target,
			Err:  fmt.Errorf("%w: %s", err, string(out)),
		}
	}
	return nil
}
