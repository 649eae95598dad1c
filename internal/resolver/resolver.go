// Package resolver merges partial tag mappings from every source in
// precedence order, applies conditional-derivation and autofill rules, and
// enforces the marker policy on the final mapping.
package resolver

import (
	"time"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

// Env supplies the environment autofill rules draw on. The clock is injected
// so resolution stays reproducible under a frozen clock.
type Env struct {
	Now        func() time.Time
	ImageSize  func() (width, height int, err error)
	ModifyDate string // embedded modification date of the scan file
}

// Resolver owns the immutable schema configuration and the rule tables.
type Resolver struct {
	schema *tags.Map
}

// New creates a resolver over a schema of code defaults.
func New(schema *tags.Map) *Resolver {
	return &Resolver{schema: schema}
}

// Schema returns the resolver's default layer.
func (r *Resolver) Schema() *tags.Map { return r.schema }

// Merge folds the source layers into one mapping: code defaults, then each
// directory metafile from the base down, then filename-decoded tags, then
// scanner-embedded tags. Conditional rules run on the merged result.
// Layers that are nil (missing metafile, failed parse) are skipped.
func (r *Resolver) Merge(dirLayers []*tags.Map, fileTags, embedded *tags.Map) *tags.Map {
	m := r.schema.Clone()
	for _, layer := range dirLayers {
		if layer == nil {
			continue
		}
		m.Apply(layer, !tags.Locked(m))
	}
	if fileTags != nil {
		m.Apply(fileTags, !tags.Locked(m))
	}
	if embedded != nil {
		// scanner tags are service tags, injected regardless of the lock
		m.Apply(embedded, true)
	}
	applyConditional(m)
	return m
}

// Resolve runs the whole pipeline for one image: merge, autofill, finalize.
func (r *Resolver) Resolve(dirLayers []*tags.Map, fileTags, embedded *tags.Map, env Env) (*tags.Map, error) {
	m := r.Merge(dirLayers, fileTags, embedded)
	if err := Autofill(m, env); err != nil {
		return nil, err
	}
	if err := Finalize(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Finalize enforces the marker policy: every tag must have resolved to a
// concrete value, SKIP or DELETE. A remaining MANDATORY or AUTO marker is a
// hard error for this image.
func Finalize(m *tags.Map) error {
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		switch v.Marker() {
		case tags.Mandatory:
			return &common.UnresolvedMandatoryTag{Tag: key}
		case tags.Auto:
			return &common.UnresolvedAutoTag{Tag: key}
		}
	}
	return nil
}

// writable reports whether the tag exists and may still be assigned.
func writable(m *tags.Map, key string) bool {
	v, ok := m.Get(key)
	return ok && v.Writable()
}
