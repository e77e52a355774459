package runtime

import (
	"reflect"
	"regexp"
	"time"
)

// Kind is the category a matched value falls into.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindSequence
	KindMap
	KindFunc
	KindTime
	KindRegexp
	KindInstance
	KindVariant
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindSequence:  "sequence",
	KindMap:       "map",
	KindFunc:      "func",
	KindTime:      "time",
	KindRegexp:    "regexp",
	KindInstance:  "instance",
	KindVariant:   "variant",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// MarshalJSON renders Undefined as null; JSON has no absent value.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Undefined is the absent-value sentinel. It is distinct from nil, which
// is the null value.
var Undefined any = undefined{}

type numeric interface {
	Float64() (float64, error)
}

var timeType = reflect.TypeOf(time.Time{})

// KindOf classifies v.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case undefined:
		return KindUndefined
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindSequence
	case map[string]any:
		return KindMap
	case time.Time:
		return KindTime
	case *regexp.Regexp:
		if x == nil {
			return KindNull
		}
		return KindRegexp
	case Variant:
		return KindVariant
	case *Variant:
		if x == nil {
			return KindNull
		}
		return KindVariant
	case numeric:
		if _, err := x.Float64(); err == nil {
			return KindNumber
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return KindNull
		}
	case reflect.Func:
		if rv.IsNil() {
			return KindNull
		}
		return KindFunc
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMap
		}
	}
	if rv.Type().ConvertibleTo(timeType) && rv.Kind() == reflect.Struct {
		return KindTime
	}
	return KindInstance
}

// IsNull reports whether v is nil or a typed nil pointer.
func IsNull(v any) bool {
	return KindOf(v) == KindNull
}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// AsNumber returns v as a float64 when v is numeric.
func AsNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case numeric:
		f, err := x.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// AsString returns v as a string when v has a string kind.
func AsString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// AsBool returns v as a bool when v has a bool kind.
func AsBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

// AsSequence returns the elements of a slice or array value. []any is
// returned as is; other slice types are copied.
func AsSequence(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// AsMap returns the entries of a string-keyed map. map[string]any is
// returned as is; other map types are copied.
func AsMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Equal compares v against a literal of the pattern language. Numbers
// compare by value regardless of their Go type.
func Equal(literal, v any) bool {
	switch lit := literal.(type) {
	case float64:
		f, ok := AsNumber(v)
		return ok && f == lit
	case string:
		s, ok := AsString(v)
		return ok && s == lit
	case bool:
		b, ok := AsBool(v)
		return ok && b == lit
	}
	return false
}
