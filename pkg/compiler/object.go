package compiler

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"pmatch/pkg/ast"
	"pmatch/pkg/errors"
)

// compileObject compiles the children of an object or keyed class pattern.
//
// Without a rest element the value's key set must equal the declared keys.
// With `...` every declared key must be present and other keys are
// ignored; with `...name` the other keys are also captured as a new map.
func compileObject(children []*ast.Node) (mapStep, error) {
	declared := sets.New[string]()
	steps := make([]mapStep, 0, len(children))
	hasRest := false

	for _, c := range children {
		switch c.Kind {
		case ast.KindKey:
			key := c.Name()
			declared.Insert(key)
			steps = append(steps, func(s *state, m map[string]any) bool {
				s.caps = append(s.caps, m[key])
				return true
			})

		case ast.KindKeyValue:
			key := c.Name()
			declared.Insert(key)
			sub, err := compileChild(c)
			if err != nil {
				return nil, err
			}
			steps = append(steps, func(s *state, m map[string]any) bool {
				return sub(s, m[key])
			})

		case ast.KindRest:
			if hasRest {
				return nil, errors.New(errors.ErrInvalidInput, "compile: multiple rest elements in one object")
			}
			hasRest = true
			switch c.Child().Kind {
			case ast.KindWildcard:
			case ast.KindIdentifier:
				steps = append(steps, func(s *state, m map[string]any) bool {
					s.caps = append(s.caps, without(m, declared))
					return true
				})
			default:
				return nil, errors.Newf(errors.ErrInvalidInput, "compile: object rest %q must be ... or ...name", c.Canonical)
			}

		default:
			return nil, errors.Newf(errors.ErrInvalidInput, "compile: unexpected %s node %q in object", c.Kind, c.Canonical)
		}
	}

	return func(s *state, m map[string]any) bool {
		if !hasRest && len(m) != declared.Len() {
			return false
		}
		for key := range declared {
			if _, ok := m[key]; !ok {
				return false
			}
		}
		for _, st := range steps {
			if !st(s, m) {
				return false
			}
		}
		return true
	}, nil
}

// without copies m minus the keys in drop.
func without(m map[string]any, drop sets.Set[string]) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !drop.Has(k) {
			out[k] = v
		}
	}
	return out
}
