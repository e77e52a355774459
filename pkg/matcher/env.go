package matcher

import (
	"sync"

	"pmatch/pkg/compiler"
	"pmatch/pkg/errors"
	"pmatch/pkg/runtime"
)

// Env owns everything patterns need at compile and match time: the
// pattern cache and the runtime registries. Envs are independent of each
// other; Default returns a process wide one.
type Env struct {
	Runtime *runtime.Runtime

	cache    *Cache
	observer Observer
}

type Option func(*Env)

func WithRuntime(rt *runtime.Runtime) Option {
	return func(e *Env) { e.Runtime = rt }
}

func WithObserver(o Observer) Option {
	return func(e *Env) { e.observer = o }
}

func NewEnv(opts ...Option) *Env {
	e := &Env{
		Runtime:  runtime.New(),
		cache:    NewCache(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache.observer = e.observer
	return e
}

var defaultEnv = sync.OnceValue(func() *Env { return NewEnv() })

// Default returns the process wide Env used by the package level helpers.
func Default() *Env { return defaultEnv() }

func (e *Env) Cache() *Cache { return e.cache }

// Compile returns the cached procedure for pattern.
func (e *Env) Compile(pattern string) (*compiler.Procedure, error) {
	return e.cache.Get(pattern)
}

// build appends a node for proc to chain, which the caller must own.
func (e *Env) build(proc Proc, then Handler, chain *Matcher) *Dispatcher {
	node := newMatcher(proc, then)
	if chain == nil {
		return &Dispatcher{env: e, head: node}
	}
	chain.Last().next = node
	return &Dispatcher{env: e, head: chain}
}

// Pattern compiles pattern into a single alternative dispatcher.
func (e *Env) Pattern(pattern string, then Handler) (*Dispatcher, error) {
	proc, err := e.cache.Get(pattern)
	if err != nil {
		return nil, err
	}
	return e.build(proc, then, nil), nil
}

// Func builds a dispatcher from a hand written procedure.
func (e *Env) Func(proc Proc, then Handler) *Dispatcher {
	return e.build(proc, then, nil)
}

// Cases builds a dispatcher trying cases in order.
func (e *Env) Cases(cases []Case) (*Dispatcher, error) {
	return e.appendCases(nil, cases)
}

func (e *Env) appendCases(chain *Matcher, cases []Case) (*Dispatcher, error) {
	if len(cases) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no cases given")
	}
	var d *Dispatcher
	for _, c := range cases {
		proc, err := e.cache.Get(c.Pattern)
		if err != nil {
			return nil, err
		}
		d = e.build(proc, c.Handler, chain)
		chain = d.head
	}
	return d, nil
}

// Join splices dispatchers into one chain that tries the alternatives of
// each in turn. The inputs are left untouched.
func (e *Env) Join(ds ...*Dispatcher) (*Dispatcher, error) {
	var chain *Matcher
	for i, d := range ds {
		if d == nil || d.head == nil {
			return nil, errors.Newf(errors.ErrNotADispatcher, "argument %d is not a dispatcher", i)
		}
		if chain == nil {
			chain = d.head.Clone()
		} else {
			chain.Last().next = d.head.Clone()
		}
	}
	if chain == nil {
		return nil, errors.New(errors.ErrNotADispatcher, "nothing to join")
	}
	last := chain.Pop()
	if last == chain {
		chain = nil
	}
	return e.build(last.proc, last.then, chain), nil
}

// CaseOf dispatches args against target, which is either a *Dispatcher or
// a []Case built on the fly.
func (e *Env) CaseOf(target any, args ...any) (any, error) {
	switch t := target.(type) {
	case *Dispatcher:
		if t != nil {
			return t.Call(args...)
		}
	case []Case:
		d, err := e.Cases(t)
		if err != nil {
			return nil, err
		}
		return d.Call(args...)
	}
	return nil, errors.Newf(errors.ErrNotADispatcher, "%T is not a dispatcher", target)
}

// Extract matches args against pattern and returns the captures, or nil
// when they do not match. Errors are syntax errors and hook failures.
func (e *Env) Extract(pattern string, args ...any) ([]any, error) {
	proc, err := e.cache.Get(pattern)
	if err != nil {
		return nil, err
	}
	caps, ok, err := proc.Match(e.Runtime, args)
	if err != nil || !ok {
		return nil, err
	}
	return caps, nil
}

// ExtractOne is Extract returning only the first capture.
func (e *Env) ExtractOne(pattern string, args ...any) (any, error) {
	caps, err := e.Extract(pattern, args...)
	if err != nil || len(caps) == 0 {
		return nil, err
	}
	return caps[0], nil
}

// Package level helpers on the Default env.

func Compile(pattern string) (*compiler.Procedure, error) { return Default().Compile(pattern) }

func Pattern(pattern string, then Handler) (*Dispatcher, error) {
	return Default().Pattern(pattern, then)
}

func Cases(cases []Case) (*Dispatcher, error) { return Default().Cases(cases) }

func CaseOf(target any, args ...any) (any, error) { return Default().CaseOf(target, args...) }

func Extract(pattern string, args ...any) ([]any, error) {
	return Default().Extract(pattern, args...)
}

func ExtractOne(pattern string, args ...any) (any, error) {
	return Default().ExtractOne(pattern, args...)
}

// Value returns a handler that ignores its captures and returns v.
func Value(v any) Handler {
	return func(...any) (any, error) { return v, nil }
}

// Captures is a handler returning the captures themselves.
func Captures(caps ...any) (any, error) {
	return caps, nil
}
