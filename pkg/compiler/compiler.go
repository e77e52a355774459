// Package compiler turns a parsed pattern into a matching procedure.
//
// Each node compiles once into a closure; matching a value walks the
// closures depth first, left to right, and stops at the first fragment that
// fails. Nothing is retried inside a procedure.
package compiler

import (
	"pmatch/pkg/ast"
	"pmatch/pkg/errors"
	"pmatch/pkg/runtime"
)

// state is threaded through one Match call.
type state struct {
	rt   *runtime.Runtime
	caps []any
	err  error
}

// step matches v, appending captures to s. A false return with s.err set
// aborts the whole match with that error.
type step func(s *state, v any) bool

// seqStep and mapStep match an already converted sequence or map.
type (
	seqStep func(s *state, seq []any) bool
	mapStep func(s *state, m map[string]any) bool
)

// Procedure is a compiled argument list.
type Procedure struct {
	canonical string
	captures  int
	run       seqStep
}

var fallbackRuntime = runtime.New()

// Compile compiles the root of a parse, which must be an argument list.
func Compile(root *ast.Node) (*Procedure, error) {
	if root == nil || root.Kind != ast.KindArgumentList {
		return nil, errors.New(errors.ErrInvalidInput, "compile: root must be an argument list")
	}
	run, err := compileSequence(root.Children)
	if err != nil {
		return nil, err
	}
	return &Procedure{
		canonical: root.Canonical,
		captures:  CountCaptures(root),
		run:       run,
	}, nil
}

// Canonical returns the canonical form of the compiled pattern.
func (p *Procedure) Canonical() string { return p.canonical }

// Captures returns how many values a successful match produces.
func (p *Procedure) Captures() int { return p.captures }

// Match applies the procedure to args. On success it returns the captured
// values in pattern order. A structural mismatch returns ok=false and a nil
// error; err is only set for failures that must not fall through, such as
// a call to an unregistered extractor.
func (p *Procedure) Match(rt *runtime.Runtime, args []any) (captures []any, ok bool, err error) {
	if rt == nil {
		rt = fallbackRuntime
	}
	s := &state{rt: rt, caps: make([]any, 0, p.captures)}
	if !p.run(s, args) {
		return nil, false, s.err
	}
	return s.caps, true, nil
}

func compile(n *ast.Node) (step, error) {
	switch n.Kind {
	case ast.KindWildcard:
		return func(*state, any) bool { return true }, nil

	case ast.KindNull:
		return func(_ *state, v any) bool { return runtime.IsNull(v) }, nil

	case ast.KindUndefined:
		return func(_ *state, v any) bool { return runtime.IsUndefined(v) }, nil

	case ast.KindBoolean, ast.KindNumber, ast.KindString:
		lit := n.Value
		return func(_ *state, v any) bool { return runtime.Equal(lit, v) }, nil

	case ast.KindIdentifier:
		return capture, nil

	case ast.KindBinder:
		sub, err := compileChild(n)
		if err != nil {
			return nil, err
		}
		return func(s *state, v any) bool {
			s.caps = append(s.caps, v)
			return sub(s, v)
		}, nil

	case ast.KindArray:
		seq, err := compileSequence(n.Children)
		if err != nil {
			return nil, err
		}
		return fromSequence(seq), nil

	case ast.KindObject:
		obj, err := compileObject(n.Children)
		if err != nil {
			return nil, err
		}
		return fromMap(obj), nil

	case ast.KindClass:
		return compileClass(n)

	case ast.KindExtractor:
		return compileExtractor(n)
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "compile: unexpected %s node %q", n.Kind, n.Canonical)
}

func compileChild(n *ast.Node) (step, error) {
	c := n.Child()
	if c == nil {
		return nil, errors.Newf(errors.ErrInvalidInput, "compile: %s node %q has no sub-pattern", n.Kind, n.Canonical)
	}
	return compile(c)
}

func capture(s *state, v any) bool {
	s.caps = append(s.caps, v)
	return true
}

func fromSequence(seq seqStep) step {
	return func(s *state, v any) bool {
		vals, ok := runtime.AsSequence(v)
		return ok && seq(s, vals)
	}
}

func fromMap(obj mapStep) step {
	return func(s *state, v any) bool {
		m, ok := runtime.AsMap(v)
		return ok && obj(s, m)
	}
}

// compileClass tests the class name, then destructures through the value's
// deconstruction hook when the pattern asks for it. A value without the
// requested hook does not match.
func compileClass(n *ast.Node) (step, error) {
	name := n.Name()
	switch n.Destructure {
	case ast.DestructurePositional:
		seq, err := compileSequence(n.Child().Children)
		if err != nil {
			return nil, err
		}
		return func(s *state, v any) bool {
			if !s.rt.MatchesTypeName(v, name) {
				return false
			}
			vals, ok := s.rt.Unapply(v)
			return ok && seq(s, vals)
		}, nil

	case ast.DestructureKeyed:
		obj, err := compileObject(n.Child().Children)
		if err != nil {
			return nil, err
		}
		return func(s *state, v any) bool {
			if !s.rt.MatchesTypeName(v, name) {
				return false
			}
			m, ok := s.rt.UnapplyObject(v)
			return ok && obj(s, m)
		}, nil
	}
	return func(s *state, v any) bool {
		return s.rt.MatchesTypeName(v, name)
	}, nil
}

func compileExtractor(n *ast.Node) (step, error) {
	name := n.Name()
	var sub step
	if n.Child() != nil {
		var err error
		if sub, err = compile(n.Child()); err != nil {
			return nil, err
		}
	}
	return func(s *state, v any) bool {
		out, ok, err := s.rt.CallExtractor(name, v)
		if err != nil {
			s.err = err
			return false
		}
		if !ok {
			return false
		}
		return sub == nil || sub(s, out)
	}, nil
}
