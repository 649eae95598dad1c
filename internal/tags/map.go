package tags

import "strings"

// Map is an ordered mapping from tag name to Value. Keys are case-sensitive
// and unique; iteration follows insertion order.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty tag mapping.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set assigns a value, appending the key on first assignment.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Insert assigns a value placed immediately before an existing anchor key.
// Falls back to a plain Set when the anchor is absent or the key exists.
func (m *Map) Insert(key string, v Value, before string) {
	if _, ok := m.vals[key]; ok {
		m.vals[key] = v
		return
	}
	for i, k := range m.keys {
		if k == before {
			m.keys = append(m.keys[:i], append([]string{key}, m.keys[i:]...)...)
			m.vals[key] = v
			return
		}
	}
	m.Set(key, v)
}

// Get looks a tag up.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// GetOr returns the tag value or a fallback when absent.
func (m *Map) GetOr(key string, def Value) Value {
	if v, ok := m.vals[key]; ok {
		return v
	}
	return def
}

// Has reports whether the tag is present.
func (m *Map) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Delete removes a tag.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// DeletePrefixes removes every tag whose name starts with one of the prefixes.
func (m *Map) DeletePrefixes(prefixes ...string) {
	kept := m.keys[:0]
	for _, k := range m.keys {
		drop := false
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				drop = true
				break
			}
		}
		if drop {
			delete(m.vals, k)
		} else {
			kept = append(kept, k)
		}
	}
	m.keys = kept
}

// Keys returns the tag names in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of tags.
func (m *Map) Len() int { return len(m.keys) }

// Clone makes an independent copy.
func (m *Map) Clone() *Map {
	c := NewMap()
	for _, k := range m.keys {
		c.Set(k, m.vals[k])
	}
	return c
}

// serviceTag reports whether a tag belongs to an always-admitted internal
// namespace. These never reach the written file and bypass the schema lock.
func serviceTag(key string) bool {
	return strings.HasPrefix(key, "Extra:") || strings.HasPrefix(key, "Scanner:")
}

// Apply folds a higher-precedence partial mapping into m. A tag already
// holding SKIP or DELETE is left untouched regardless of the update. When
// both old and new values are lists, list elements are updated positionally.
// With allowNew false, keys absent from m are dropped silently unless they
// belong to a service namespace.
func (m *Map) Apply(update *Map, allowNew bool) {
	for _, key := range update.keys {
		next := update.vals[key]
		if cur, ok := m.vals[key]; ok {
			if !cur.Writable() {
				continue
			}
			if cur.Kind() == KindList && next.Kind() == KindList {
				m.vals[key] = mergeLists(cur, next)
				continue
			}
			m.vals[key] = next
		} else if allowNew || serviceTag(key) {
			m.Set(key, next)
		}
	}
}

// mergeLists overlays new list elements onto the old list by position,
// skipping Unset slots so partial tuples leave prior elements intact.
func mergeLists(old, next Value) Value {
	merged := append([]Value(nil), old.List()...)
	for i, e := range next.List() {
		if i < len(merged) {
			if !e.IsUnset() {
				merged[i] = e
			}
		} else {
			merged = append(merged, e)
		}
	}
	return List(merged...)
}
