package matcher

import (
	"sync/atomic"
	"time"

	"pmatch/pkg/runtime"
)

// Proc is a matching procedure: it returns the captures of args, or
// ok=false when args do not match. *compiler.Procedure is the usual one.
type Proc interface {
	Match(rt *runtime.Runtime, args []any) (captures []any, ok bool, err error)
}

// ProcFunc adapts a plain function to Proc.
type ProcFunc func(rt *runtime.Runtime, args []any) ([]any, bool, error)

func (f ProcFunc) Match(rt *runtime.Runtime, args []any) ([]any, bool, error) {
	return f(rt, args)
}

// Handler is run with the captures of the alternative that matched.
type Handler func(captures ...any) (any, error)

// Matcher is one alternative of a chain. next is owned by this node; chains
// are never shared without Clone.
type Matcher struct {
	proc Proc
	then Handler
	next *Matcher
}

// Dispatcher is an immutable, callable view of a chain. Extending it
// returns a new Dispatcher and leaves the receiver untouched.
type Dispatcher struct {
	env  *Env
	head *Matcher
}

// AtomicDispatcher holds the dispatcher a server is currently using so it
// can be swapped while requests are in flight.
type AtomicDispatcher struct {
	Ptr atomic.Pointer[Dispatcher]
}

// Case is one entry of an ordered case list.
type Case struct {
	Pattern string
	Handler Handler
}

// Result describes a successful dispatch.
type Result struct {
	Index    int    `json:"case"`
	Pattern  string `json:"pattern"`
	Captures []any  `json:"captures"`
	Value    any    `json:"result"`
}

// Stats are pattern cache counters.
type Stats struct {
	Raw           int   `json:"raw"`
	Canonical     int   `json:"canonical"`
	Compiles      int64 `json:"compiles"`
	RawHits       int64 `json:"raw_hits"`
	CanonicalHits int64 `json:"canonical_hits"`
}

// Observer receives instrumentation events from an Env.
type Observer interface {
	CacheLookup(level string)
	Compiled(d time.Duration)
	Dispatched(outcome string, d time.Duration)
}

// Cache lookup levels and dispatch outcomes reported to an Observer.
const (
	LevelRaw       = "raw"
	LevelCanonical = "canonical"
	LevelMiss      = "miss"

	OutcomeMatched   = "matched"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

type nopObserver struct{}

func (nopObserver) CacheLookup(string)               {}
func (nopObserver) Compiled(time.Duration)           {}
func (nopObserver) Dispatched(string, time.Duration) {}
