// Package taskid implements the TaskID routing primitive (spec.md §3, §4.1):
// a method plus a segmented path, where each segment is either static
// (literal, equality match) or dynamic (named, typed, converter-backed).
package taskid

import (
	"fmt"
	"strings"

	"taskgrid/internal/convert"
)

// Method is one of the fixed HTTP-style verbs, or Wildcard to match any.
type Method string

const (
	GET      Method = "GET"
	POST     Method = "POST"
	PUT      Method = "PUT"
	PATCH    Method = "PATCH"
	DELETE   Method = "DELETE"
	OPTIONS  Method = "OPTIONS"
	Wildcard Method = "*"
)

// DefaultSeparator is the path segment delimiter used when none is given.
const DefaultSeparator = "/"

// segment is one path element: either static (literal set, Dynamic=false)
// or dynamic (Name set, Converter set).
type segment struct {
	literal   string
	dynamic   bool
	name      string
	converter convert.Converter
}

// TaskID is immutable after construction (§3 "Lifecycle: immutable after
// construction").
type TaskID struct {
	method    Method
	rawPath   string
	separator string
	segments  []segment
	// dynamicIdx lists indices, in segments, that are dynamic — mirrors
	// §4.1's "dynamic-indices list".
	dynamicIdx []int
}

// Option configures New.
type Option func(*buildOpts)

type buildOpts struct {
	separator string
	types     map[string]convert.Converter
}

// WithSeparator overrides the default "/" path separator.
func WithSeparator(sep string) Option {
	return func(o *buildOpts) { o.separator = sep }
}

// WithTypes supplies a converter for each named dynamic segment. A dynamic
// segment with no entry here gets convert.Any{} (§4.1).
func WithTypes(types map[string]convert.Converter) Option {
	return func(o *buildOpts) { o.types = types }
}

// New constructs a TaskID from a method and a raw path such as
// "/users/{id}". Empty edge segments from the split are stripped (§4.1,
// and the boundary behavior in §8 about trailing slashes).
func New(method Method, rawPath string, opts ...Option) *TaskID {
	o := buildOpts{separator: DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}

	parts := splitPath(rawPath, o.separator)
	segs := make([]segment, 0, len(parts))
	var dynIdx []int
	for i, p := range parts {
		if isDynamicToken(p) {
			name := p[1 : len(p)-1]
			conv, ok := o.types[name]
			if !ok {
				conv = convert.Any{}
			}
			segs = append(segs, segment{dynamic: true, name: name, converter: conv})
			dynIdx = append(dynIdx, i)
		} else {
			segs = append(segs, segment{literal: p})
		}
	}

	return &TaskID{
		method:     method,
		rawPath:    rawPath,
		separator:  o.separator,
		segments:   segs,
		dynamicIdx: dynIdx,
	}
}

func splitPath(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	// strip empty edge segments (leading/trailing separator)
	start, end := 0, len(parts)
	for start < end && parts[start] == "" {
		start++
	}
	for end > start && parts[end-1] == "" {
		end--
	}
	return parts[start:end]
}

func isDynamicToken(p string) bool {
	return len(p) >= 2 && p[0] == '{' && p[len(p)-1] == '}'
}

// Method returns the TaskID's method (may be Wildcard).
func (t *TaskID) Method() Method { return t.method }

// Path reconstructs the dotted/slashed path form (dynamic segments rendered
// as "{name}", always led by the separator), used by StaticKey and
// diagnostics.
func (t *TaskID) Path() string {
	parts := make([]string, len(t.segments))
	for i, s := range t.segments {
		if s.dynamic {
			parts[i] = "{" + s.name + "}"
		} else {
			parts[i] = s.literal
		}
	}
	return t.separator + strings.Join(parts, t.separator)
}

// IsStatic reports whether the TaskID has no dynamic segments and no
// wildcard method (§3).
func (t *TaskID) IsStatic() bool {
	return len(t.dynamicIdx) == 0 && t.method != Wildcard
}

// StaticKey returns the exact-match key used by the registry's static
// table. It is only meaningful (and only called) when IsStatic is true.
func (t *TaskID) StaticKey() string {
	return string(t.method) + " " + t.Path()
}

// shapeKey returns a key identifying method+segment-shape (segment count
// plus which positions are dynamic) without consulting converters. Used by
// the registry to decide "existing matching" entries for dynamic bindings
// (§4.2).
func (t *TaskID) shapeKey() string {
	var b strings.Builder
	b.WriteString(string(t.method))
	for _, s := range t.segments {
		if s.dynamic {
			b.WriteString("/{}")
		} else {
			b.WriteString("/")
			b.WriteString(s.literal)
		}
	}
	return b.String()
}

// ShapeKey exposes shapeKey for the registry package.
func (t *TaskID) ShapeKey() string { return t.shapeKey() }

// Match implements §4.1's matching algorithm: t is the pattern, candidate is
// the static TaskID being looked up. On success it returns the resolved
// path-parameter map (possibly empty) and true.
func (t *TaskID) Match(candidate *TaskID) (map[string]any, bool) {
	if t.method != Wildcard && t.method != candidate.method {
		return nil, false
	}
	if len(t.segments) != len(candidate.segments) {
		return nil, false
	}
	if len(t.dynamicIdx) == 0 {
		for i := range t.segments {
			if t.segments[i].literal != candidate.segments[i].literal {
				return nil, false
			}
		}
		return map[string]any{}, true
	}

	params := make(map[string]any, len(t.dynamicIdx))
	for i := range t.segments {
		ps, cs := t.segments[i], candidate.segments[i]
		if !ps.dynamic {
			if ps.literal != cs.literal {
				return nil, false
			}
			continue
		}
		raw := cs.literal
		v, err := ps.converter.Convert(raw)
		if err != nil {
			return nil, false
		}
		params[ps.name] = v
	}
	return params, true
}

// Equal implements §3's TaskID equality: method+shape match and every
// dynamic slot in one accepts the corresponding literal of the other.
func (t *TaskID) Equal(other *TaskID) bool {
	if _, ok := t.Match(other); ok {
		if _, ok2 := other.Match(t); ok2 {
			return true
		}
	}
	return false
}

// Fork returns a new TaskID whose path is prefix+original path, per §4.1.
// The prefix may itself contain dynamic segments ("{tenant}/v1"); their
// converters come from prefixTypes.
func (t *TaskID) Fork(prefix string, prefixTypes map[string]convert.Converter) *TaskID {
	if prefix == "" {
		cp := *t
		segs := make([]segment, len(t.segments))
		copy(segs, t.segments)
		cp.segments = segs
		idx := make([]int, len(t.dynamicIdx))
		copy(idx, t.dynamicIdx)
		cp.dynamicIdx = idx
		return &cp
	}

	prefixParts := splitPath(prefix, t.separator)
	newSegs := make([]segment, 0, len(prefixParts)+len(t.segments))
	var newDyn []int
	for _, p := range prefixParts {
		if isDynamicToken(p) {
			name := p[1 : len(p)-1]
			conv, ok := prefixTypes[name]
			if !ok {
				conv = convert.Any{}
			}
			newDyn = append(newDyn, len(newSegs))
			newSegs = append(newSegs, segment{dynamic: true, name: name, converter: conv})
		} else {
			newSegs = append(newSegs, segment{literal: p})
		}
	}
	base := len(newSegs)
	newSegs = append(newSegs, t.segments...)
	for _, i := range t.dynamicIdx {
		newDyn = append(newDyn, base+i)
	}

	return &TaskID{
		method:     t.method,
		rawPath:    prefix + t.rawPath,
		separator:  t.separator,
		segments:   newSegs,
		dynamicIdx: newDyn,
	}
}

// DumpToStr renders "METHOD@path" for a static TaskID, the pub/sub/queue
// envelope's task_id field format (spec.md §6). The path is the raw path
// the TaskID was built from, so a dotted event name such as "user.created"
// is written without a leading separator and reads back unchanged.
func (t *TaskID) DumpToStr() string {
	return fmt.Sprintf("%s@%s", t.method, t.rawPath)
}

// LoadFromStr parses the "METHOD@path" form produced by DumpToStr. Only
// round-trips TaskIDs with no dynamic segments, per §8.
func LoadFromStr(s string) (*TaskID, error) {
	at := strings.IndexByte(s, '@')
	if at < 0 {
		return nil, fmt.Errorf("taskid: malformed %q, expected METHOD@path", s)
	}
	method := Method(s[:at])
	path := s[at+1:]
	return New(method, path), nil
}
