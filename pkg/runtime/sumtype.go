package runtime

import (
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"pmatch/pkg/errors"
)

// Variant is a value of a tagged sum type: the constructor tag plus its
// positional fields. Keys optionally names the fields for keyed
// destructuring and must then be as long as Fields.
type Variant struct {
	Tag    string
	Fields []any
	Keys   []string
}

// NewVariant builds a positional variant value.
func NewVariant(tag string, fields ...any) Variant {
	return Variant{Tag: tag, Fields: fields}
}

// Object returns the named fields of v, or false when v has no field names.
func (v Variant) Object() (map[string]any, bool) {
	if len(v.Keys) == 0 || len(v.Keys) != len(v.Fields) {
		return nil, false
	}
	out := make(map[string]any, len(v.Keys))
	for i, k := range v.Keys {
		out[k] = v.Fields[i]
	}
	return out, true
}

// SumTypes maps sum type names to the set of variant tags they contain.
// Every defined tag is also registered under its own name.
type SumTypes struct {
	mu      sync.RWMutex
	types   map[string]sets.Set[string]
	defined sets.Set[string]
}

func NewSumTypes() *SumTypes {
	return &SumTypes{
		types:   make(map[string]sets.Set[string]),
		defined: sets.New[string](),
	}
}

// Define registers typeName with the given variant tags. A name can be
// defined once; a tag only registered through another type may be defined.
func (s *SumTypes) Define(typeName string, tags ...string) error {
	if typeName == "" {
		return errors.New(errors.ErrInvalidInput, "sum type name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.defined.Has(typeName) {
		return errors.Newf(errors.ErrAlreadyExists, "sum type %s is already defined", typeName).
			WithDetail("type", typeName)
	}
	s.defined.Insert(typeName)
	set, ok := s.types[typeName]
	if !ok {
		set = sets.New[string]()
		s.types[typeName] = set
	}
	set.Insert(tags...)
	for _, tag := range tags {
		if _, ok := s.types[tag]; !ok {
			s.types[tag] = sets.New(tag)
		}
	}
	return nil
}

// Lookup returns a copy of the variant tags of name.
func (s *SumTypes) Lookup(name string) (sets.Set[string], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.types[name]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// Contains reports whether tag is a variant of the sum type name.
func (s *SumTypes) Contains(name, tag string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.types[name]
	return ok && set.Has(tag)
}

// Slot returns field i of a variant value.
func (s *SumTypes) Slot(v any, i int) (any, error) {
	vv, ok := asVariant(v)
	if !ok {
		return nil, errors.Newf(errors.ErrSlot, "%T is not a variant", v)
	}
	if i < 0 || i >= len(vv.Fields) {
		return nil, errors.Newf(errors.ErrSlot, "slot %d out of range for %s/%d", i, vv.Tag, len(vv.Fields)).
			WithDetail("tag", vv.Tag)
	}
	return vv.Fields[i], nil
}

func asVariant(v any) (Variant, bool) {
	switch x := v.(type) {
	case Variant:
		return x, true
	case *Variant:
		if x != nil {
			return *x, true
		}
	}
	return Variant{}, false
}
