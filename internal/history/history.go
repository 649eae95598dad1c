// Package history builds the composite ImageHistory value out of the
// history-namespace tags and the scanner provenance block.
package history

import (
	"strings"

	"github.com/filmscan/scantag/internal/tags"
)

const (
	historyPrefix = "ImageHistory:"
	scannerPrefix = "Scanner:"
	// the existing ImageHistory value may carry a caret marking where the
	// composed block is inserted
	insertMark = "^"
)

// node is one level of the nested rendering tree, order-preserving.
type node struct {
	keys     []string
	children map[string]*node
	values   map[string]tags.Value
}

func newNode() *node {
	return &node{children: make(map[string]*node), values: make(map[string]tags.Value)}
}

func (n *node) add(path []string, v tags.Value) {
	if len(path) == 1 {
		if _, ok := n.values[path[0]]; !ok {
			if _, isChild := n.children[path[0]]; !isChild {
				n.keys = append(n.keys, path[0])
			}
		}
		n.values[path[0]] = v
		return
	}
	child, ok := n.children[path[0]]
	if !ok {
		child = newNode()
		n.children[path[0]] = child
		if _, isVal := n.values[path[0]]; !isVal {
			n.keys = append(n.keys, path[0])
		}
	}
	child.add(path[1:], v)
}

// Compose collects ImageHistory:*-prefixed tags (in mapping order) and then
// Scanner:* tags, nests them at colon boundaries, renders the block and
// assigns it to the ImageHistory tag, honoring the caret insert mark in the
// tag's previous value.
func Compose(m *tags.Map) {
	existing, ok := m.Get(tags.TagImageHistory)
	if !ok || !existing.Writable() {
		return
	}
	head, tail, _ := strings.Cut(existing.Str(), insertMark)

	root := newNode()
	for _, key := range m.Keys() {
		if !strings.HasPrefix(key, historyPrefix) {
			continue
		}
		v, _ := m.Get(key)
		if v.IsMarker() || v.IsUnset() {
			continue
		}
		root.add(strings.Split(key[len(historyPrefix):], ":"), v)
	}
	for _, key := range m.Keys() {
		if !strings.HasPrefix(key, scannerPrefix) {
			continue
		}
		v, _ := m.Get(key)
		if v.IsMarker() || v.IsUnset() {
			continue
		}
		root.add(strings.Split(key, ":"), v)
	}

	var b strings.Builder
	b.WriteString(head)
	render(root, "", &b)
	b.WriteString(tail)
	m.Set(tags.TagImageHistory, tags.String(b.String()))
}

// render writes one nesting level: `key: value;` entries, `key: {` blocks
// closed with `};`, indented four spaces per level.
func render(n *node, indent string, b *strings.Builder) {
	for _, key := range n.keys {
		if child, ok := n.children[key]; ok {
			b.WriteString("\n" + indent + key + ": {")
			render(child, indent+"    ", b)
			b.WriteString("\n" + indent + "};")
			continue
		}
		b.WriteString("\n" + indent + key + ": " + renderValue(n.values[key]) + ";")
	}
}

// renderValue keeps strings quoted, numbers and booleans bare, lists
// bracketed.
func renderValue(v tags.Value) string {
	switch v.Kind() {
	case tags.KindString:
		return `"` + v.Str() + `"`
	case tags.KindList:
		parts := make([]string, len(v.List()))
		for i, e := range v.List() {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.Text()
	}
}
