package api

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldType is the primitive type of a schema field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

func (t FieldType) scalar() bool {
	switch t {
	case FieldString, FieldInteger, FieldNumber, FieldBoolean:
		return true
	}
	return false
}

// Field describes a single named value of a node's input or output.
//
// Minimum and Maximum bound integer and number fields. MinLength and
// MaxLength bound strings (in runes) and arrays (in items). Enum restricts
// string fields to a fixed set. Items is the element type of an array
// field and defaults to string.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Default     any

	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	Enum      []string
	Items     FieldType
}

// Schema is the structural contract of a node's input or output.
type Schema struct {
	Title  string
	Fields []Field
}

// ViolationKind classifies why a value did not satisfy a schema.
type ViolationKind string

const (
	ViolationMissing    ViolationKind = "missing"
	ViolationType       ViolationKind = "type"
	ViolationConstraint ViolationKind = "constraint"
	ViolationUnexpected ViolationKind = "unexpected"
)

// Violation is one field-level schema mismatch.
type Violation struct {
	Field  string
	Kind   ViolationKind
	Detail string
}

func (v Violation) String() string {
	return v.Field + ": " + string(v.Kind) + ": " + v.Detail
}

// ValidationError lists every violation found in one validation pass.
// It unwraps to ErrValidationFailed.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	noun := "violations"
	if len(parts) == 1 {
		noun = "violation"
	}
	return fmt.Sprintf("%d %s: %s", len(parts), noun, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Fields returns the names of the offending fields in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if !slices.Contains(out, v.Field) {
			out = append(out, v.Field)
		}
	}
	return out
}

// Check reports whether the schema itself is well-formed: unique non-empty
// field names, known types, consistent bounds and conforming defaults.
func (s *Schema) Check() error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case FieldString, FieldInteger, FieldNumber, FieldBoolean, FieldObject:
		case FieldArray:
			if f.Items != "" && !f.Items.scalar() {
				return fmt.Errorf("%w: field %q has unsupported item type %q", ErrInvalidSchema, f.Name, f.Items)
			}
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidSchema, f.Name, f.Type)
		}
		if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
			return fmt.Errorf("%w: field %q has minimum above maximum", ErrInvalidSchema, f.Name)
		}
		if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
			return fmt.Errorf("%w: field %q has min length above max length", ErrInvalidSchema, f.Name)
		}
		if f.Default != nil {
			if _, v := f.conform(f.Default); v != nil {
				return fmt.Errorf("%w: field %q default: %s", ErrInvalidSchema, f.Name, v.Detail)
			}
		}
	}
	return nil
}

// Validate checks payload against the schema and returns the validated
// Input. Unknown payload keys are ignored. All violations are collected
// and returned together as a *ValidationError.
func (s *Schema) Validate(payload map[string]any) (Input, error) {
	if err := s.Check(); err != nil {
		return Input{}, err
	}
	values, violations := s.apply(payload)
	if len(violations) > 0 {
		return Input{}, &ValidationError{Violations: violations}
	}
	return Input{values: values}, nil
}

// CheckOutput verifies out against the schema and returns the plain map to
// hand back to callers. Unlike Validate, undeclared keys are violations.
func (s *Schema) CheckOutput(out Output) (map[string]any, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &ValidationError{Violations: []Violation{{Field: "(output)", Kind: ViolationMissing, Detail: "node returned no output"}}}
	}
	values, violations := s.apply(out)
	for _, key := range sortedKeys(out) {
		if !slices.ContainsFunc(s.Fields, func(f Field) bool { return f.Name == key }) {
			violations = append(violations, Violation{Field: key, Kind: ViolationUnexpected, Detail: "field is not declared"})
		}
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return values, nil
}

func (s *Schema) apply(payload map[string]any) (map[string]any, []Violation) {
	values := make(map[string]any, len(s.Fields))
	var violations []Violation
	for _, f := range s.Fields {
		raw, present := payload[f.Name]
		if !present || (raw == nil && !f.Required) {
			switch {
			case f.Required:
				violations = append(violations, Violation{Field: f.Name, Kind: ViolationMissing, Detail: "field required"})
			case f.Default != nil:
				v, _ := f.conform(f.Default)
				values[f.Name] = v
			}
			continue
		}
		v, violation := f.conform(raw)
		if violation != nil {
			violations = append(violations, *violation)
			continue
		}
		values[f.Name] = v
	}
	return values, violations
}

func (f Field) conform(raw any) (any, *Violation) {
	v, ok := coerce(f.Type, f.itemType(), raw)
	if !ok {
		return nil, &Violation{
			Field:  f.Name,
			Kind:   ViolationType,
			Detail: fmt.Sprintf("expected %s, got %s", f.typeLabel(), jsonTypeName(raw)),
		}
	}
	if detail := f.constrain(v); detail != "" {
		return nil, &Violation{Field: f.Name, Kind: ViolationConstraint, Detail: detail}
	}
	return v, nil
}

func (f Field) itemType() FieldType {
	if f.Items == "" {
		return FieldString
	}
	return f.Items
}

func (f Field) typeLabel() string {
	if f.Type == FieldArray {
		return "array of " + string(f.itemType())
	}
	return string(f.Type)
}

func (f Field) constrain(v any) string {
	switch x := v.(type) {
	case int:
		return f.bounds(float64(x))
	case float64:
		return f.bounds(x)
	case string:
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, x) {
			return fmt.Sprintf("must be one of [%s], got %q", strings.Join(f.Enum, ", "), x)
		}
		return f.length(utf8.RuneCountInString(x), "characters")
	}
	if f.Type == FieldArray {
		return f.length(reflect.ValueOf(v).Len(), "items")
	}
	return ""
}

func (f Field) bounds(n float64) string {
	if f.Minimum != nil && n < *f.Minimum {
		return fmt.Sprintf("must be >= %v, got %v", *f.Minimum, n)
	}
	if f.Maximum != nil && n > *f.Maximum {
		return fmt.Sprintf("must be <= %v, got %v", *f.Maximum, n)
	}
	return ""
}

func (f Field) length(n int, unit string) string {
	if f.MinLength != nil && n < *f.MinLength {
		return fmt.Sprintf("must have at least %d %s, got %d", *f.MinLength, unit, n)
	}
	if f.MaxLength != nil && n > *f.MaxLength {
		return fmt.Sprintf("must have at most %d %s, got %d", *f.MaxLength, unit, n)
	}
	return ""
}

// coerce converts raw into the canonical Go representation of t:
// string, int, float64, bool, []string/[]int/[]float64/[]bool or
// map[string]any.
func coerce(t, items FieldType, raw any) (any, bool) {
	switch t {
	case FieldString:
		s, ok := raw.(string)
		return s, ok
	case FieldBoolean:
		b, ok := raw.(bool)
		return b, ok
	case FieldInteger:
		return toInt(raw)
	case FieldNumber:
		return toFloat(raw)
	case FieldObject:
		return toObject(raw)
	case FieldArray:
		return toArray(items, raw)
	}
	return nil, false
}

func toInt(raw any) (any, bool) {
	switch n := raw.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return nil, false
			}
			return toInt(f)
		}
		return int(i), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n >= 0x1p63 || n < -0x1p63 {
			return nil, false
		}
		return int(n), true
	case float32:
		return toInt(float64(n))
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return nil, false
		}
		return int(v.Uint()), true
	}
	return nil, false
}

func toFloat(raw any) (any, bool) {
	switch n := raw.(type) {
	case float64:
		return n, finite(n)
	case float32:
		return float64(n), finite(float64(n))
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && finite(f)
	}
	if i, ok := toInt(raw); ok {
		return float64(i.(int)), true
	}
	return nil, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toObject(raw any) (any, bool) {
	if m, ok := raw.(map[string]any); ok {
		return clone(m), true
	}
	v := reflect.ValueOf(raw)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = clone(iter.Value().Interface())
	}
	return out, true
}

func toArray(items FieldType, raw any) (any, bool) {
	v := reflect.ValueOf(raw)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	n := v.Len()
	switch items {
	case FieldString:
		out := make([]string, n)
		for i := range n {
			s, ok := coerce(FieldString, "", v.Index(i).Interface())
			if !ok {
				return nil, false
			}
			out[i] = s.(string)
		}
		return out, true
	case FieldInteger:
		out := make([]int, n)
		for i := range n {
			x, ok := toInt(v.Index(i).Interface())
			if !ok {
				return nil, false
			}
			out[i] = x.(int)
		}
		return out, true
	case FieldNumber:
		out := make([]float64, n)
		for i := range n {
			x, ok := toFloat(v.Index(i).Interface())
			if !ok {
				return nil, false
			}
			out[i] = x.(float64)
		}
		return out, true
	case FieldBoolean:
		out := make([]bool, n)
		for i := range n {
			b, ok := v.Index(i).Interface().(bool)
			if !ok {
				return nil, false
			}
			out[i] = b
		}
		return out, true
	}
	return nil, false
}

func jsonTypeName(raw any) string {
	if raw == nil {
		return "null"
	}
	switch raw.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float32, float64:
		return "number"
	case map[string]any:
		return "object"
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return fmt.Sprintf("%T", raw)
}

// JSONSchema derives the machine-readable JSON Schema document for s.
// The result is deterministic for a given field list.
func (s *Schema) JSONSchema() (*jsonschema.Schema, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}
	out := &jsonschema.Schema{
		Type:       "object",
		Title:      s.Title,
		Properties: make(map[string]*jsonschema.Schema, len(s.Fields)),
	}
	for _, f := range s.Fields {
		prop, err := f.jsonSchema()
		if err != nil {
			return nil, err
		}
		out.Properties[f.Name] = prop
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out, nil
}

func (f Field) jsonSchema() (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{
		Type:        string(f.Type),
		Title:       cases.Title(language.English).String(strings.ReplaceAll(f.Name, "_", " ")),
		Description: f.Description,
		Minimum:     f.Minimum,
		Maximum:     f.Maximum,
	}
	switch f.Type {
	case FieldString:
		prop.MinLength = f.MinLength
		prop.MaxLength = f.MaxLength
		for _, e := range f.Enum {
			prop.Enum = append(prop.Enum, e)
		}
	case FieldArray:
		prop.Items = &jsonschema.Schema{Type: string(f.itemType())}
		prop.MinItems = f.MinLength
		prop.MaxItems = f.MaxLength
	}
	if f.Default != nil {
		v, _ := f.conform(f.Default)
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q default: %v", ErrInvalidSchema, f.Name, err)
		}
		prop.Default = json.RawMessage(raw)
	}
	return prop, nil
}

// Ptr is a small helper for the pointer-typed bounds of a Field.
func Ptr[T any](v T) *T { return &v }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
