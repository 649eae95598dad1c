// Package walker enumerates scan files under a base directory with
// wildcard filtering and an optional depth limit.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Walker yields files whose base name matches one of the patterns. Depth
// counts directories below the base: 0 keeps only files directly inside it,
// a negative depth means unlimited.
type Walker struct {
	patterns []string
	depth    int
}

func New(wildcards string, depth int) *Walker {
	var pats []string
	for _, p := range strings.Split(wildcards, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pats = append(pats, p)
		}
	}
	return &Walker{patterns: pats, depth: depth}
}

func (w *Walker) matches(name string) bool {
	for _, pat := range w.patterns {
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// Walk calls fn with the slash-separated path of each matching file,
// relative to base. Files are visited in lexical order.
func (w *Walker) Walk(base string, fn func(rel string) error) error {
	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if w.depth >= 0 && strings.Count(rel, "/") > w.depth {
			return nil
		}
		if !w.matches(d.Name()) {
			return nil
		}
		return fn(rel)
	})
}

// List collects the matching relative paths.
func (w *Walker) List(base string) ([]string, error) {
	var out []string
	err := w.Walk(base, func(rel string) error {
		out = append(out, rel)
		return nil
	})
	return out, err
}
