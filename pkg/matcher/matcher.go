// Package matcher chains compiled patterns into first-match-wins
// dispatchers and caches compiled patterns by raw text and canonical form.
package matcher

import (
	"pmatch/pkg/errors"
	"pmatch/pkg/runtime"
)

// ErrPatternsExhausted is returned when no alternative of a chain matches.
var ErrPatternsExhausted = errors.New(errors.ErrPatternsExhausted, "All patterns exhausted")

type canonicaler interface {
	Canonical() string
}

func newMatcher(proc Proc, then Handler) *Matcher {
	return &Matcher{proc: proc, then: then}
}

// Match tries each alternative in order and runs the handler of the first
// one that matches. A hook error stops the walk without trying the rest.
func (m *Matcher) Match(rt *runtime.Runtime, args []any) (any, error) {
	res, err := m.match(rt, args)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (m *Matcher) match(rt *runtime.Runtime, args []any) (Result, error) {
	i := 0
	for n := m; n != nil; n = n.next {
		caps, ok, err := n.proc.Match(rt, args)
		if err != nil {
			return Result{}, err
		}
		if ok {
			v, err := n.then(caps...)
			return Result{Index: i, Pattern: n.Pattern(), Captures: caps, Value: v}, err
		}
		i++
	}
	return Result{}, ErrPatternsExhausted
}

// Pattern returns the canonical form of the node's procedure, or "<func>"
// for procedures that have none.
func (m *Matcher) Pattern() string {
	if c, ok := m.proc.(canonicaler); ok {
		return c.Canonical()
	}
	return "<func>"
}

// Clone copies the chain starting at m. Procedures and handlers are shared.
func (m *Matcher) Clone() *Matcher {
	head := &Matcher{proc: m.proc, then: m.then}
	dst := head
	for src := m.next; src != nil; src = src.next {
		dst.next = &Matcher{proc: src.proc, then: src.then}
		dst = dst.next
	}
	return head
}

// Last returns the tail of the chain.
func (m *Matcher) Last() *Matcher {
	n := m
	for n.next != nil {
		n = n.next
	}
	return n
}

// Pop detaches and returns the tail. A single node chain has nothing to
// detach from, so Pop returns m itself.
func (m *Matcher) Pop() *Matcher {
	var prev *Matcher
	n := m
	for n.next != nil {
		prev, n = n, n.next
	}
	if prev != nil {
		prev.next = nil
	}
	return n
}

// Len counts the nodes in the chain.
func (m *Matcher) Len() int {
	c := 0
	for n := m; n != nil; n = n.next {
		c++
	}
	return c
}

// Load returns the current dispatcher, or nil before the first Store.
func (a *AtomicDispatcher) Load() *Dispatcher {
	return a.Ptr.Load()
}

func (a *AtomicDispatcher) Store(d *Dispatcher) {
	a.Ptr.Store(d)
}
