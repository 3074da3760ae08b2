// Package convert is the minimal stand-in for the scheme subsystem's
// "converter-from-annotation" service (spec.md §6). The full scheme/DAO
// validation system is an external collaborator out of this core's scope,
// but TaskID construction (§4.1) and Handler parameter resolution (§4.3)
// both need *some* converter at wire time, so this package provides the
// common primitive converters and recursive combinators the spec names:
// int, string, bool, float, enum, datetime, Optional<T>, Union<T,...>,
// List<T>, Set<T>, Tuple<T,...>.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Converter validates and parses a raw value into a typed one, per §4.1's
// "converter" role. raw is a string for path segments, but may already be
// a decoded JSON value (string/float64/bool/[]any/map[string]any/nil) when
// resolving a body or query parameter (§4.3: "Then run the converter" runs
// regardless of where the value came from).
type Converter interface {
	Convert(raw any) (any, error)
	// Name identifies the converter for diagnostics; not used for equality.
	Name() string
}

func asString(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

// Any is the identity converter assigned to a dynamic segment with no
// declared type (§4.1: "else assign the identity/any converter").
type Any struct{}

func (Any) Convert(raw any) (any, error) { return raw, nil }
func (Any) Name() string                 { return "any" }

// Str accepts a string as-is, or stringifies any other scalar.
type Str struct{}

func (Str) Convert(raw any) (any, error) {
	if s, ok := asString(raw); ok {
		return s, nil
	}
	if raw == nil {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}
func (Str) Name() string { return "string" }

// Int converts decimal integer text, or an already-numeric JSON value
// (json.Unmarshal into any yields float64) with no fractional part.
type Int struct{}

func (Int) Convert(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("convert: %v is not an integral number", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("convert: %q is not an int: %w", v, err)
		}
		return int(n), nil
	default:
		return nil, fmt.Errorf("convert: %v (%T) is not an int", raw, raw)
	}
}
func (Int) Name() string { return "int" }

// Float converts decimal floating point text, or passes through a float64.
type Float struct{}

func (Float) Convert(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("convert: %q is not a float: %w", v, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("convert: %v (%T) is not a float", raw, raw)
	}
}
func (Float) Name() string { return "float" }

// Bool accepts the common boolean literal spellings, or a bool passthrough.
type Bool struct{}

func (Bool) Convert(raw any) (any, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	s, ok := asString(raw)
	if !ok {
		return nil, fmt.Errorf("convert: %v (%T) is not a bool", raw, raw)
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return nil, fmt.Errorf("convert: %q is not a bool", s)
	}
}
func (Bool) Name() string { return "bool" }

// DateTime parses RFC3339 timestamps, or passes through a time.Time.
type DateTime struct{}

func (DateTime) Convert(raw any) (any, error) {
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}
	s, ok := asString(raw)
	if !ok {
		return nil, fmt.Errorf("convert: %v (%T) is not a datetime", raw, raw)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("convert: %q is not an RFC3339 datetime: %w", s, err)
	}
	return t, nil
}
func (DateTime) Name() string { return "datetime" }

// Enum accepts only raw values present in Values.
type Enum struct {
	Values []string
}

func (e Enum) Convert(raw any) (any, error) {
	s, ok := asString(raw)
	if !ok {
		s = fmt.Sprint(raw)
	}
	for _, v := range e.Values {
		if v == s {
			return s, nil
		}
	}
	return nil, fmt.Errorf("convert: %q is not one of %v", s, e.Values)
}
func (Enum) Name() string { return "enum" }

// Optional wraps Inner, converting nil/"" to nil instead of delegating
// (§8's "Body content-type application/json with empty body -> ... null,
// not a parse error" boundary behavior generalizes to any optional param).
type Optional struct{ Inner Converter }

func (o Optional) Convert(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := asString(raw); ok && s == "" {
		return nil, nil
	}
	return o.Inner.Convert(raw)
}
func (o Optional) Name() string { return "optional<" + o.Inner.Name() + ">" }

// Union tries each alternative converter in order, succeeding with the
// first that accepts raw.
type Union struct{ Alternatives []Converter }

func (u Union) Convert(raw any) (any, error) {
	var lastErr error
	for _, alt := range u.Alternatives {
		v, err := alt.Convert(raw)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("convert: %v matched no union alternative: %w", raw, lastErr)
}
func (u Union) Name() string {
	names := make([]string, len(u.Alternatives))
	for i, a := range u.Alternatives {
		names[i] = a.Name()
	}
	return "union<" + strings.Join(names, ",") + ">"
}

// elements returns raw's items, splitting a string on Sep or iterating an
// already-decoded slice ([]any from JSON, or []string).
func elements(raw any, sep string) ([]any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case string:
		if v == "" {
			return nil, nil
		}
		parts := strings.Split(v, sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	default:
		return nil, fmt.Errorf("convert: %v (%T) is not list-like", raw, raw)
	}
}

// List converts each element of raw with Elem; raw is a comma-separated
// string (path/query form) or an already-decoded slice (JSON body).
type List struct {
	Elem Converter
	Sep  string
}

func (l List) Convert(raw any) (any, error) {
	sep := l.Sep
	if sep == "" {
		sep = ","
	}
	els, err := elements(raw, sep)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(els))
	for _, e := range els {
		v, err := l.Elem.Convert(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
func (l List) Name() string { return "list<" + l.Elem.Name() + ">" }

// Set behaves like List but de-duplicates converted values.
type Set struct {
	Elem Converter
	Sep  string
}

func (s Set) Convert(raw any) (any, error) {
	lst, err := (List(s)).Convert(raw)
	if err != nil {
		return nil, err
	}
	vals := lst.([]any)
	seen := make(map[any]bool, len(vals))
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}
func (s Set) Name() string { return "set<" + s.Elem.Name() + ">" }

// Tuple converts raw (a comma-separated string or an already-decoded
// slice) positionally against Elems; raw must have exactly len(Elems)
// elements.
type Tuple struct {
	Elems []Converter
	Sep   string
}

func (t Tuple) Convert(raw any) (any, error) {
	sep := t.Sep
	if sep == "" {
		sep = ","
	}
	els, err := elements(raw, sep)
	if err != nil {
		return nil, err
	}
	if len(els) != len(t.Elems) {
		return nil, fmt.Errorf("convert: %v has %d parts, want %d", raw, len(els), len(t.Elems))
	}
	out := make([]any, len(els))
	for i, e := range els {
		v, err := t.Elems[i].Convert(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
func (t Tuple) Name() string {
	names := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		names[i] = e.Name()
	}
	return "tuple<" + strings.Join(names, ",") + ">"
}
