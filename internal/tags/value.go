package tags

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker is a sentinel standing in for a tag value that is not yet known and
// needs special handling during resolution.
type Marker int

const (
	MarkerNone Marker = iota
	Mandatory         // a hard error is raised if no value gets assigned
	Optional          // the tag is dropped if no value gets assigned
	Auto              // the value is filled in by an autofill rule
	Skip              // the tag is never written, existing file value stays
	Delete            // the tag is deleted from the target file
)

var markerNames = map[Marker]string{
	Mandatory: "<MANDATORY>",
	Optional:  "<OPTIONAL>",
	Auto:      "<AUTO>",
	Skip:      "<SKIP>",
	Delete:    "<DELETE>",
}

// String returns the textual form used in metafiles.
func (m Marker) String() string {
	if s, ok := markerNames[m]; ok {
		return s
	}
	return "<NONE>"
}

// ParseMarker recognizes the textual form of a marker.
func ParseMarker(s string) (Marker, bool) {
	for m, name := range markerNames {
		if s == name {
			return m, true
		}
	}
	return MarkerNone, false
}

// Kind discriminates the variants of Value.
type Kind int

const (
	KindUnset Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindMarker
)

// MapEntry is a key/value pair inside a map-valued literal.
type MapEntry struct {
	Key string
	Val Value
}

// Value is the tagged union held by every tag: either a concrete literal
// (string, number, boolean, list, key/value structure), a Marker sentinel, or
// Unset for "not given".
type Value struct {
	kind    Kind
	str     string
	integer int64
	real    float64
	boolean bool
	list    []Value
	entries []MapEntry
	marker  Marker
}

func Unset() Value                  { return Value{kind: KindUnset} }
func String(s string) Value         { return Value{kind: KindString, str: s} }
func Int(i int64) Value             { return Value{kind: KindInt, integer: i} }
func Float(f float64) Value         { return Value{kind: KindFloat, real: f} }
func Bool(b bool) Value             { return Value{kind: KindBool, boolean: b} }
func List(vs ...Value) Value        { return Value{kind: KindList, list: vs} }
func Struct(es ...MapEntry) Value   { return Value{kind: KindMap, entries: es} }
func Sentinel(m Marker) Value       { return Value{kind: KindMarker, marker: m} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsUnset() bool    { return v.kind == KindUnset }
func (v Value) IsMarker() bool   { return v.kind == KindMarker }
func (v Value) Marker() Marker {
	if v.kind == KindMarker {
		return v.marker
	}
	return MarkerNone
}

// Writable reports whether a tag holding this value may be assigned a new one.
// SKIP and DELETE are terminal for the run.
func (v Value) Writable() bool {
	return v.marker != Skip && v.marker != Delete
}

func (v Value) Str() string     { return v.str }
func (v Value) Int64() int64    { return v.integer }
func (v Value) Bool() bool      { return v.kind == KindBool && v.boolean }
func (v Value) List() []Value   { return v.list }
func (v Value) Entries() []MapEntry { return v.entries }

// Float64 returns the numeric value for both int and float variants.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.integer)
	}
	return v.real
}

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Text renders the value the way it is written out: strings bare, numbers in
// their shortest form, lists space-joined.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return strconv.FormatFloat(v.real, 'g', -1, 64)
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Text()
		}
		return strings.Join(parts, " ")
	case KindMap:
		parts := make([]string, len(v.entries))
		for i, e := range v.entries {
			parts[i] = fmt.Sprintf("%s=%s", e.Key, e.Val.Text())
		}
		return strings.Join(parts, " ")
	case KindMarker:
		return v.marker.String()
	}
	return ""
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnset:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.integer == o.integer
	case KindFloat:
		return v.real == o.real
	case KindBool:
		return v.boolean == o.boolean
	case KindMarker:
		return v.marker == o.marker
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != o.entries[i].Key || !v.entries[i].Val.Equal(o.entries[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}
