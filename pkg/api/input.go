package api

import (
	"slices"
)

// Input is a payload that passed a node's input schema. It can only be
// obtained from Schema.Validate and never changes afterwards: object
// values are deep-copied on the way in and composite values on the way out.
//
// Values are stored in their canonical form (string, int, float64, bool,
// typed slices, map[string]any); the typed accessors return the zero value
// for absent fields or fields of another type.
type Input struct {
	values map[string]any
}

// Has reports whether name carries a value (supplied or defaulted).
func (in Input) Has(name string) bool {
	_, ok := in.values[name]
	return ok
}

// Value returns the value stored under name.
func (in Input) Value(name string) (any, bool) {
	v, ok := in.values[name]
	return clone(v), ok
}

func (in Input) String(name string) string {
	s, _ := in.values[name].(string)
	return s
}

func (in Input) Int(name string) int {
	i, _ := in.values[name].(int)
	return i
}

func (in Input) Float(name string) float64 {
	f, _ := in.values[name].(float64)
	return f
}

func (in Input) Bool(name string) bool {
	b, _ := in.values[name].(bool)
	return b
}

func (in Input) Strings(name string) []string {
	s, _ := in.values[name].([]string)
	return slices.Clone(s)
}

func (in Input) Object(name string) map[string]any {
	m, _ := in.values[name].(map[string]any)
	if m == nil {
		return nil
	}
	return clone(m).(map[string]any)
}

// Map returns a copy of every validated value keyed by field name.
func (in Input) Map() map[string]any {
	out := make(map[string]any, len(in.values))
	for k, v := range in.values {
		out[k] = clone(v)
	}
	return out
}

func clone(v any) any {
	switch x := v.(type) {
	case []string:
		return slices.Clone(x)
	case []int:
		return slices.Clone(x)
	case []float64:
		return slices.Clone(x)
	case []bool:
		return slices.Clone(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	}
	return v
}
