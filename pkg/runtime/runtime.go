// Package runtime holds what compiled patterns consult while matching:
// value classification, class-name tests, the extractor registry, sum type
// definitions and deconstruction hooks.
package runtime

import (
	"sync"
)

// Deconstructor supplies deconstruction hooks for a type that cannot
// implement Unapplier or ObjectUnapplier itself. Either field may be nil.
type Deconstructor struct {
	Positional func(v any) []any
	Keyed      func(v any) map[string]any
}

// Runtime bundles the registries a matching environment owns.
type Runtime struct {
	Extractors *Extractors
	SumTypes   *SumTypes

	mu     sync.RWMutex
	decons map[string]Deconstructor
}

func New() *Runtime {
	return &Runtime{
		Extractors: NewExtractors(),
		SumTypes:   NewSumTypes(),
		decons:     make(map[string]Deconstructor),
	}
}

// RegisterDeconstructor installs hooks for values whose TypeName is
// typeName.
func (r *Runtime) RegisterDeconstructor(typeName string, d Deconstructor) {
	r.mu.Lock()
	r.decons[typeName] = d
	r.mu.Unlock()
}

func (r *Runtime) deconstructor(v any) (Deconstructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decons[TypeName(v)]
	return d, ok
}

// MatchesTypeName reports whether v passes the class test for name.
// Built-in names test the value kind. Any other name is compared against
// the nominal type name of v (the tag, for variants), then looked up as a
// sum type containing that name.
func (r *Runtime) MatchesTypeName(v any, name string) bool {
	k := KindOf(v)
	if test, ok := builtinTypes[name]; ok {
		return test(k)
	}
	switch k {
	case KindUndefined, KindNull:
		return false
	}
	own := TypeName(v)
	if vv, ok := asVariant(v); ok {
		own = vv.Tag
	}
	if own == name {
		return true
	}
	return own != "" && r.SumTypes != nil && r.SumTypes.Contains(name, own)
}

// Unapply runs the positional deconstruction hook of v. It returns false
// when v has none.
func (r *Runtime) Unapply(v any) ([]any, bool) {
	if d, ok := r.deconstructor(v); ok && d.Positional != nil {
		return d.Positional(v), true
	}
	switch x := v.(type) {
	case Unapplier:
		return x.Unapply(), true
	case Variant, *Variant:
		vv, _ := asVariant(x)
		out := make([]any, len(vv.Fields))
		for i := range out {
			f, err := r.SumTypes.Slot(vv, i)
			if err != nil {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// UnapplyObject runs the keyed deconstruction hook of v. It returns false
// when v has none.
func (r *Runtime) UnapplyObject(v any) (map[string]any, bool) {
	if d, ok := r.deconstructor(v); ok && d.Keyed != nil {
		return d.Keyed(v), true
	}
	switch x := v.(type) {
	case ObjectUnapplier:
		return x.UnapplyObject(), true
	case Variant, *Variant:
		vv, _ := asVariant(x)
		return vv.Object()
	}
	return nil, false
}

// CallExtractor is shorthand for r.Extractors.Call.
func (r *Runtime) CallExtractor(name string, v any) (any, bool, error) {
	return r.Extractors.Call(name, v)
}
