package domain

import "fmt"

// Value is the tagged sum of shapes a model operation argument or result
// may take.
type Value struct {
	Int    *int64
	Float  *float64
	Str    *string
	Bool   *bool
	Bytes  []byte
	Ints   []int
	Strs   []string
	Nested map[string]Value
	List   []Value
}

// IntValue wraps an int64 as a Value.
func IntValue(v int64) Value { return Value{Int: &v} }

// FloatValue wraps a float64 as a Value.
func FloatValue(v float64) Value { return Value{Float: &v} }

// StringValue wraps a string as a Value.
func StringValue(v string) Value { return Value{Str: &v} }

// BoolValue wraps a bool as a Value.
func BoolValue(v bool) Value { return Value{Bool: &v} }

// ListValue wraps a slice of Values as a Value, for operations that return
// a variable-length collection of structured results (e.g. a MAC polling
// its radio for this epoch's received packets).
func ListValue(items []Value) Value { return Value{List: items} }

// NestedValue wraps a keyword bag as a single nested Value.
func NestedValue(fields map[string]Value) Value { return Value{Nested: fields} }

// Args is the keyword-argument bag passed to Model.Invoke.
type Args map[string]Value

// RequireInt fetches a required integer argument, returning a structured
// InvocationError on absence or type mismatch.
func (a Args) RequireInt(op, key string) (int64, *InvocationError) {
	v, ok := a[key]
	if !ok {
		return 0, &InvocationError{Kind: MissingArgument, Operation: op, Detail: key}
	}
	if v.Int == nil {
		return 0, &InvocationError{Kind: InvalidArgument, Operation: op, Detail: fmt.Sprintf("%s: expected int", key)}
	}
	return *v.Int, nil
}

// RequireString fetches a required string argument.
func (a Args) RequireString(op, key string) (string, *InvocationError) {
	v, ok := a[key]
	if !ok {
		return "", &InvocationError{Kind: MissingArgument, Operation: op, Detail: key}
	}
	if v.Str == nil {
		return "", &InvocationError{Kind: InvalidArgument, Operation: op, Detail: fmt.Sprintf("%s: expected string", key)}
	}
	return *v.Str, nil
}

// OptionalInt fetches an optional integer argument, returning def if absent.
func (a Args) OptionalInt(key string, def int64) int64 {
	v, ok := a[key]
	if !ok || v.Int == nil {
		return def
	}
	return *v.Int
}

// OptionalFloat fetches an optional float argument, returning def if absent.
func (a Args) OptionalFloat(key string, def float64) float64 {
	v, ok := a[key]
	if !ok {
		return def
	}
	if v.Float != nil {
		return *v.Float
	}
	if v.Int != nil {
		return float64(*v.Int)
	}
	return def
}

// Native unwraps a Value into the plain Go value it wraps (string, float64,
// int64, bool, []byte, or a nested map/slice of the same), for callers that
// cross out of the tagged-sum representation entirely; the runtime control
// plane's JSON transport is the one place that needs to.
func (v Value) Native() any {
	switch {
	case v.Int != nil:
		return *v.Int
	case v.Float != nil:
		return *v.Float
	case v.Str != nil:
		return *v.Str
	case v.Bool != nil:
		return *v.Bool
	case v.Bytes != nil:
		return v.Bytes
	case v.Ints != nil:
		return v.Ints
	case v.Strs != nil:
		return v.Strs
	case v.List != nil:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Native()
		}
		return out
	case v.Nested != nil:
		out := make(map[string]any, len(v.Nested))
		for k, item := range v.Nested {
			out[k] = item.Native()
		}
		return out
	default:
		return nil
	}
}
