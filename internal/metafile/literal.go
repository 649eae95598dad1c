package metafile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/filmscan/scantag/internal/tags"
)

// parseLiteral parses one metafile value. The grammar is deliberately closed:
// quoted strings, integers, floats, booleans, None, lists, tuples and
// string-keyed structures. A value that starts like one of those but fails
// its grammar is an error; a bare word that starts like none of them is taken
// as a plain string, so `Make = Panasonic` stays writable by hand.
func parseLiteral(s string) (tags.Value, error) {
	s = strings.TrimSpace(s)
	if m, ok := tags.ParseMarker(s); ok {
		return tags.Sentinel(m), nil
	}
	if s == "" {
		return tags.String(""), nil
	}
	if !structural(s[0]) {
		switch s {
		case "True", "true":
			return tags.Bool(true), nil
		case "False", "false":
			return tags.Bool(false), nil
		case "None", "null":
			return tags.Unset(), nil
		}
		return tags.String(s), nil
	}
	p := &litParser{src: s}
	v, err := p.value()
	if err != nil {
		return tags.Unset(), err
	}
	p.ws()
	if p.pos != len(p.src) {
		return tags.Unset(), fmt.Errorf("trailing characters after literal at offset %d", p.pos)
	}
	return v, nil
}

// structural reports whether the first byte commits the value to the literal
// grammar instead of the bare-string fallback.
func structural(c byte) bool {
	return c == '\'' || c == '"' || c == '[' || c == '(' || c == '{' ||
		c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

type litParser struct {
	src string
	pos int
}

func (p *litParser) ws() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *litParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *litParser) value() (tags.Value, error) {
	p.ws()
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		s, err := p.quoted()
		return tags.String(s), err
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '{':
		return p.structure()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		// keywords inside containers
		for _, kw := range []string{"True", "true", "False", "false", "None", "null"} {
			if strings.HasPrefix(p.src[p.pos:], kw) {
				p.pos += len(kw)
				switch kw {
				case "True", "true":
					return tags.Bool(true), nil
				case "False", "false":
					return tags.Bool(false), nil
				}
				return tags.Unset(), nil
			}
		}
		return tags.Unset(), fmt.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *litParser) quoted() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated escape at end of string")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return "", fmt.Errorf("unsupported escape \\%c", e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (p *litParser) number() (tags.Value, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") {
		p.pos += 2
		for p.pos < len(p.src) && isHexDigit(p.src[p.pos]) {
			p.pos++
		}
		i, err := strconv.ParseInt(p.src[start:p.pos], 0, 64)
		if err != nil {
			return tags.Unset(), fmt.Errorf("malformed number %q", p.src[start:p.pos])
		}
		return tags.Int(i), nil
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
		} else if (c == '+' || c == '-') && isFloat &&
			(p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E') {
			p.pos++
		} else {
			break
		}
	}
	text := p.src[start:p.pos]
	if !isFloat {
		if i, err := strconv.ParseInt(text, 0, 64); err == nil {
			return tags.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return tags.Unset(), fmt.Errorf("malformed number %q", text)
	}
	return tags.Float(f), nil
}

func (p *litParser) sequence(open, close byte) (tags.Value, error) {
	p.pos++ // consume open
	var items []tags.Value
	for {
		p.ws()
		if p.peek() == close {
			p.pos++
			return tags.List(items...), nil
		}
		if p.pos >= len(p.src) {
			return tags.Unset(), fmt.Errorf("unterminated %c...%c literal", open, close)
		}
		v, err := p.value()
		if err != nil {
			return tags.Unset(), err
		}
		items = append(items, v)
		p.ws()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
		default:
			return tags.Unset(), fmt.Errorf("expected ',' or '%c' at offset %d", close, p.pos)
		}
	}
}

func (p *litParser) structure() (tags.Value, error) {
	p.pos++ // consume '{'
	var entries []tags.MapEntry
	for {
		p.ws()
		if p.peek() == '}' {
			p.pos++
			return tags.Struct(entries...), nil
		}
		if p.pos >= len(p.src) {
			return tags.Unset(), fmt.Errorf("unterminated {...} literal")
		}
		if c := p.peek(); c != '\'' && c != '"' {
			return tags.Unset(), fmt.Errorf("structure keys must be quoted strings at offset %d", p.pos)
		}
		key, err := p.quoted()
		if err != nil {
			return tags.Unset(), err
		}
		p.ws()
		if p.peek() != ':' {
			return tags.Unset(), fmt.Errorf("expected ':' after key %q", key)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return tags.Unset(), err
		}
		entries = append(entries, tags.MapEntry{Key: key, Val: v})
		p.ws()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return tags.Unset(), fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}
