// Package metafile reads directory-scoped tag override files: one
// `name = literal` assignment per line, applied to every image at or below
// the directory that holds the file.
package metafile

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

// Parse reads one metafile. Comment lines start with '#' or ';'; blank lines
// and lines without '=' are skipped. A malformed literal fails the whole file
// with a MetafileParseError naming the line.
func Parse(r io.Reader, name string) (*tags.Map, error) {
	m := tags.NewMap()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		eq := strings.Index(text, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(text[:eq])
		raw := strings.TrimSpace(text[eq+1:])
		v, err := parseLiteral(raw)
		if err != nil {
			return nil, &common.MetafileParseError{File: name, Line: line, Message: err.Error()}
		}
		m.Set(key, v)
	}
	if err := sc.Err(); err != nil {
		return nil, &common.MetafileParseError{File: name, Line: line, Message: err.Error()}
	}
	// a metafile that configures any transform implies the transform is wanted
	if !m.Has(tags.TagTransformEnabled) {
		for _, k := range m.Keys() {
			if strings.HasPrefix(k, "ImageTransform:") {
				m.Set(tags.TagTransformEnabled, tags.Bool(true))
				break
			}
		}
	}
	return m, nil
}

// ParseFile parses the metafile at path.
func ParseFile(path string) (*tags.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, path)
}

type cacheEntry struct {
	tags *tags.Map
	err  error
}

// Cache memoizes metafile parses so every image under a directory shares one
// read-only parse result. Missing files are cached as absent; parse failures
// are cached too so they surface once per run.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Load returns the parsed metafile at path, or (nil, nil) when the file does
// not exist. The first call parses; later calls return the cached result.
func (c *Cache) Load(path string) (*tags.Map, error) {
	c.mu.Lock()
	if e, ok := c.entries[path]; ok {
		c.mu.Unlock()
		return e.tags, e.err
	}
	c.mu.Unlock()

	var entry cacheEntry
	if _, err := os.Stat(path); os.IsNotExist(err) {
		entry = cacheEntry{}
	} else {
		m, err := ParseFile(path)
		if err != nil {
			logger.Warn("Skipping metafile contribution: %v", err)
		}
		entry = cacheEntry{tags: m, err: err}
	}

	c.mu.Lock()
	// another worker may have raced the parse; first result wins
	if e, ok := c.entries[path]; ok {
		c.mu.Unlock()
		return e.tags, e.err
	}
	c.entries[path] = entry
	c.mu.Unlock()
	return entry.tags, entry.err
}
