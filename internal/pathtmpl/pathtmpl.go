// Package pathtmpl resolves output path templates against a resolved tag
// mapping. Placeholders are `{Tag:Name}` or `{Tag:Name?format}` where format
// is a printf-style verb.
package pathtmpl

import (
	"fmt"
	"strings"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

// Build substitutes every placeholder in template from the mapping. Missing
// tags and tags without a concrete value fail with UnknownTemplateTag.
// Substituted text is sanitized for path use; the Extra:File* identity tags
// are exempt since they are path-shaped by construction.
func Build(template string, m *tags.Map) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:open])
		rest = rest[open+1:]
		close := strings.Index(rest, "}")
		if close < 0 {
			// unmatched brace passes through literally
			b.WriteString("{" + rest)
			return b.String(), nil
		}
		placeholder := rest[:close]
		rest = rest[close+1:]

		name, format, _ := strings.Cut(placeholder, "?")
		text, err := expand(name, format, m)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
}

func expand(name, format string, m *tags.Map) (string, error) {
	v, ok := m.Get(name)
	if !ok || v.IsMarker() || v.IsUnset() {
		return "", &common.UnknownTemplateTag{Tag: name}
	}

	var text string
	if format != "" {
		text = formatValue(format, v)
	} else {
		text = v.Text()
	}

	if !strings.HasPrefix(name, "Extra:File") {
		text = Sanitize(text)
	}
	return text, nil
}

// formatValue applies a printf-style verb with the argument typed to match.
func formatValue(format string, v tags.Value) string {
	if !strings.HasPrefix(format, "%") {
		format = "%" + format
	}
	switch verb := format[len(format)-1]; verb {
	case 'd', 'o', 'x', 'X', 'b', 'c':
		return fmt.Sprintf(format, v.Int64())
	case 'f', 'e', 'E', 'g', 'G':
		return fmt.Sprintf(format, v.Float64())
	case 't':
		return fmt.Sprintf(format, v.Bool())
	default:
		return fmt.Sprintf(format, v.Text())
	}
}

// Sanitize replaces characters illegal in file paths with an underscore.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r < 0x20:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
