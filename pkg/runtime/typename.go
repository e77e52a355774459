package runtime

import "reflect"

// TypeNamer lets a value choose the name class patterns test it against.
type TypeNamer interface {
	TypeName() string
}

// Unapplier is the positional deconstruction hook: Point(x, y).
type Unapplier interface {
	Unapply() []any
}

// ObjectUnapplier is the keyed deconstruction hook: Point{x, y}.
type ObjectUnapplier interface {
	UnapplyObject() map[string]any
}

// builtinTypes maps the built-in class names to the value kinds they accept.
var builtinTypes = map[string]func(Kind) bool{
	"Undefined": is(KindUndefined),
	"Null":      is(KindNull),
	"Boolean":   is(KindBoolean),
	"Number":    is(KindNumber),
	"String":    is(KindString),
	"Array":     is(KindSequence),
	"Function":  is(KindFunc),
	"Date":      is(KindTime),
	"RegExp":    is(KindRegexp),
	"Object":    func(k Kind) bool { return k == KindMap || k == KindInstance },
}

func is(want Kind) func(Kind) bool {
	return func(k Kind) bool { return k == want }
}

// IsBuiltinType reports whether name is one of the built-in class names.
func IsBuiltinType(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

// TypeName returns the nominal name of v: the TypeName method result if v
// has one, else the Go type name with pointers stripped.
func TypeName(v any) string {
	if tn, ok := v.(TypeNamer); ok {
		return tn.TypeName()
	}
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
