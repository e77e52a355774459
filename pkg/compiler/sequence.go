package compiler

import (
	"pmatch/pkg/ast"
	"pmatch/pkg/errors"
)

// compileSequence compiles the children of an array, an argument list or a
// positional class pattern.
func compileSequence(children []*ast.Node) (seqStep, error) {
	rest := -1
	steps := make([]step, len(children))
	for i, c := range children {
		if c.Kind == ast.KindRest {
			if rest >= 0 {
				return nil, errors.New(errors.ErrInvalidInput, "compile: multiple rest elements in one list")
			}
			rest = i
			continue
		}
		st, err := compile(c)
		if err != nil {
			return nil, err
		}
		steps[i] = st
	}
	if rest < 0 {
		return exactSequence(steps), nil
	}
	span, err := compileSpan(children[rest].Child())
	if err != nil {
		return nil, err
	}
	return restSequence(steps[:rest], span, steps[rest+1:]), nil
}

func exactSequence(steps []step) seqStep {
	return func(s *state, seq []any) bool {
		if len(seq) != len(steps) {
			return false
		}
		for i, st := range steps {
			if !st(s, seq[i]) {
				return false
			}
		}
		return true
	}
}

// restSequence matches head from the front and tail from the back, giving
// the span in between to the rest element.
func restSequence(head []step, span seqStep, tail []step) seqStep {
	need := len(head) + len(tail)
	return func(s *state, seq []any) bool {
		if len(seq) < need {
			return false
		}
		for i, st := range head {
			if !st(s, seq[i]) {
				return false
			}
		}
		end := len(seq) - len(tail)
		if !span(s, seq[len(head):end]) {
			return false
		}
		for i, st := range tail {
			if !st(s, seq[end+i]) {
				return false
			}
		}
		return true
	}
}

// compileSpan compiles the sub-pattern of a rest element. A wildcard skips
// the span and an identifier captures it as a slice. Any other pattern is
// applied to each element; each of its capture slots is gathered into a
// slice with one entry per element.
func compileSpan(sub *ast.Node) (seqStep, error) {
	switch sub.Kind {
	case ast.KindWildcard:
		return func(*state, []any) bool { return true }, nil
	case ast.KindIdentifier:
		return func(s *state, span []any) bool {
			s.caps = append(s.caps, append(make([]any, 0, len(span)), span...))
			return true
		}, nil
	}

	each, err := compile(sub)
	if err != nil {
		return nil, err
	}
	slots := CountCaptures(sub)
	return func(s *state, span []any) bool {
		cols := make([][]any, slots)
		for i := range cols {
			cols[i] = make([]any, 0, len(span))
		}
		outer := s.caps
		scratch := make([]any, 0, slots)
		for _, v := range span {
			s.caps = scratch[:0]
			if !each(s, v) {
				s.caps = outer
				return false
			}
			for i := range cols {
				cols[i] = append(cols[i], s.caps[i])
			}
			scratch = s.caps
		}
		s.caps = outer
		for _, col := range cols {
			s.caps = append(s.caps, col)
		}
		return true
	}, nil
}
