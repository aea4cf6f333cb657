// Package validate evaluates declarative per-operation schemas against
// untyped request data. A schema is a data-described rule set; the
// evaluator is a pure function of (schema, input) returning the full
// list of violations, independent of any HTTP framework.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind selects the coercion and checks applied to a field.
type Kind int

const (
	String Kind = iota
	Date
	Int
	Number
	Enum
	NumberList
)

// Rule describes the constraints on a single field.
type Rule struct {
	Kind     Kind
	Required bool
	NonEmpty bool     // strings: reject empty after trimming
	MaxLen   int      // strings: maximum length, 0 = unlimited
	Enum     []string // Enum: accepted values
	Len      int      // NumberList: exact element count
	Min, Max float64  // numeric bounds; per element for NumberList
	HasRange bool
	Default  any // applied when the field is absent
}

// Field pairs a name with its rule; slices keep evaluation order stable
// so violation lists come out in declaration order.
type Field struct {
	Name string
	Rule Rule
}

// Schema groups the rule tables for one operation.
type Schema struct {
	Body   []Field
	Query  []Field
	Params []Field
}

// Fields holds cleaned, typed values keyed by field name.
type Fields map[string]any

// Has reports whether the field was present (or defaulted).
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the cleaned string value, or "" when absent.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// StringPtr returns the cleaned string value, or nil when absent.
func (f Fields) StringPtr(name string) *string {
	if v, ok := f[name]; ok {
		s := v.(string)
		return &s
	}
	return nil
}

// Time returns the cleaned date value and whether it was present.
func (f Fields) Time(name string) (time.Time, bool) {
	t, ok := f[name].(time.Time)
	return t, ok
}

// TimePtr returns the cleaned date value, or nil when absent.
func (f Fields) TimePtr(name string) *time.Time {
	if t, ok := f[name].(time.Time); ok {
		return &t
	}
	return nil
}

// Int returns the cleaned integer value, or fallback when absent.
func (f Fields) Int(name string, fallback int) int {
	if v, ok := f[name].(int); ok {
		return v
	}
	return fallback
}

// Numbers returns the cleaned numeric list, or nil when absent.
func (f Fields) Numbers(name string) []float64 {
	v, _ := f[name].([]float64)
	return v
}

// Result carries the cleaned sections after a successful evaluation.
type Result struct {
	Body   Fields
	Query  Fields
	Params Fields
}

// Evaluate checks every section of the schema against the supplied raw
// data and returns the cleaned values plus all violations found. Unknown
// fields are dropped silently. Defaults are applied for absent fields.
// The caller must treat a non-empty violation list as a hard failure.
func (s Schema) Evaluate(body, query, params map[string]any) (Result, []string) {
	var violations []string
	res := Result{
		Body:   evalSection(s.Body, body, &violations),
		Query:  evalSection(s.Query, query, &violations),
		Params: evalSection(s.Params, params, &violations),
	}
	return res, violations
}

func evalSection(fields []Field, raw map[string]any, violations *[]string) Fields {
	out := make(Fields, len(fields))
	for _, f := range fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Rule.Required {
				*violations = append(*violations, f.Name+" is required")
				continue
			}
			if f.Rule.Default != nil {
				out[f.Name] = f.Rule.Default
			}
			continue
		}
		cleaned, errs := checkField(f.Name, v, f.Rule)
		if len(errs) > 0 {
			*violations = append(*violations, errs...)
			continue
		}
		out[f.Name] = cleaned
	}
	return out
}

func checkField(name string, raw any, r Rule) (any, []string) {
	switch r.Kind {
	case String:
		s, ok := raw.(string)
		if !ok {
			return nil, []string{name + " must be a string"}
		}
		s = strings.TrimSpace(s)
		if r.NonEmpty && s == "" {
			return nil, []string{name + " must not be empty"}
		}
		if r.MaxLen > 0 && len(s) > r.MaxLen {
			return nil, []string{fmt.Sprintf("%s must be at most %d characters", name, r.MaxLen)}
		}
		return s, nil

	case Date:
		t, ok := parseDate(raw)
		if !ok {
			return nil, []string{name + " must be a valid date"}
		}
		return t, nil

	case Int:
		n, ok := parseInt(raw)
		if !ok {
			return nil, []string{name + " must be an integer"}
		}
		if r.HasRange {
			// Max == 0 means no upper bound.
			if r.Max > 0 && (float64(n) < r.Min || float64(n) > r.Max) {
				return nil, []string{rangeMessage(name, r)}
			}
			if r.Max == 0 && float64(n) < r.Min {
				return nil, []string{fmt.Sprintf("%s must be at least %s", name, formatBound(r.Min))}
			}
		}
		return n, nil

	case Number:
		n, ok := parseNumber(raw)
		if !ok {
			return nil, []string{name + " must be a number"}
		}
		if r.HasRange && (n < r.Min || n > r.Max) {
			return nil, []string{rangeMessage(name, r)}
		}
		return n, nil

	case Enum:
		s, ok := raw.(string)
		if !ok || !contains(r.Enum, s) {
			return nil, []string{name + " must be one of " + strings.Join(r.Enum, ", ")}
		}
		return s, nil

	case NumberList:
		items, ok := raw.([]any)
		if !ok {
			return nil, []string{name + " must be an array of numbers"}
		}
		if r.Len > 0 && len(items) != r.Len {
			return nil, []string{fmt.Sprintf("%s must contain exactly %d values", name, r.Len)}
		}
		var errs []string
		nums := make([]float64, 0, len(items))
		for i, item := range items {
			n, ok := parseNumber(item)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s[%d] must be a number", name, i))
				continue
			}
			if r.HasRange && (n < r.Min || n > r.Max) {
				errs = append(errs, fmt.Sprintf("%s[%d] must be between %s and %s", name, i, formatBound(r.Min), formatBound(r.Max)))
				continue
			}
			nums = append(nums, n)
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return nums, nil
	}
	return nil, []string{name + " has an unknown rule kind"}
}

// parseDate accepts time.Time, RFC3339 strings, and date-only strings.
func parseDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseInt accepts query-string integers and integral JSON numbers.
func parseInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func parseNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func rangeMessage(name string, r Rule) string {
	return fmt.Sprintf("%s must be between %s and %s", name, formatBound(r.Min), formatBound(r.Max))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
