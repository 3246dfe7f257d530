package idom

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ValueKind is the Value type discriminator.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota // No value; the attribute is not present
	KindString                  // Plain string
	KindBool                    // Boolean flag
	KindNumber                  // Numeric value
	KindRef                     // Opaque reference (handlers, objects)
)

// String returns the string representation of the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "Absent"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindRef:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Value is an attribute value. The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	ref  any
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int creates a numeric value from an int.
func Int(n int) Value { return Number(float64(n)) }

// Ref creates an opaque reference value, such as an event handler.
func Ref(v any) Value { return Value{kind: KindRef, ref: v} }

// ValueOf converts a Go value to a Value.
func ValueOf(v any) Value {
	switch val := v.(type) {
	case nil:
		return Absent()
	case Value:
		return val
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case int:
		return Int(val)
	case int64:
		return Number(float64(val))
	case int32:
		return Number(float64(val))
	case uint:
		return Number(float64(val))
	case uint64:
		return Number(float64(val))
	case float32:
		return Number(float64(val))
	case float64:
		return Number(val)
	default:
		return Ref(v)
	}
}

// Kind returns the kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Truthy reports whether the value counts as present.
// Empty strings, false, 0, NaN, nil references and the absent value are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindRef:
		return v.ref != nil
	default:
		return false
	}
}

// Equal reports whether two values are the same kind and hold the same payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindRef:
		return refsEqual(v.ref, o.ref)
	}
	return false
}

// refsEqual compares references by identity where the type allows it.
// Functions are never comparable, so two function refs compare equal only
// when they point to the same code.
func refsEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// Str returns the string payload, or "" for non-string values.
func (v Value) Str() string { return v.str }

// BoolValue returns the boolean payload.
func (v Value) BoolValue() bool { return v.b }

// Num returns the numeric payload.
func (v Value) Num() float64 { return v.num }

// Interface returns the opaque reference payload.
func (v Value) Interface() any { return v.ref }

// String returns the value as it would be serialised into markup.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindRef:
		return fmt.Sprintf("%v", v.ref)
	default:
		return ""
	}
}

// GoString implements fmt.GoStringer for readable test failures.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindAbsent:
		return "<absent>"
	default:
		return v.kind.String() + "(" + v.String() + ")"
	}
}

// Attr is a single attribute name/value pair.
type Attr struct {
	Name  string
	Value Value
}

// A creates an Attr, converting value with ValueOf.
func A(name string, value any) Attr {
	return Attr{Name: name, Value: ValueOf(value)}
}

// Attrs builds a slice of attributes from alternating name/value arguments.
// A trailing name without value is ignored.
func Attrs(pairs ...any) []Attr {
	out := make([]Attr, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		out = append(out, A(name, pairs[i+1]))
	}
	return out
}
