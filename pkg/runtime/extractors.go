package runtime

import (
	"regexp"
	"sync"

	"github.com/armon/go-radix"

	"pmatch/pkg/errors"
)

// Pass wraps the value an extractor pulls out of its input. Returning
// anything other than a Pass from an extractor means "no match".
type Pass struct {
	Value any
}

// PassFunc is handed to every extractor to build its success result.
type PassFunc func(v any) Pass

// Extractor tests and transforms a value. It returns pass(extracted) on
// success and anything else on failure.
type Extractor func(v any, pass PassFunc) any

func makePass(v any) Pass { return Pass{Value: v} }

var extractorName = regexp.MustCompile(`^[_$a-zA-Z][_$a-zA-Z0-9]*$`)

// Extractors is a name to Extractor registry. Names are kept in a radix
// tree so they can be listed by prefix.
type Extractors struct {
	mu     sync.RWMutex
	tree   *radix.Tree
	onCall func(name string, passed bool)
}

func NewExtractors() *Extractors {
	return &Extractors{tree: radix.New()}
}

// Register adds or replaces the extractor for name.
func (e *Extractors) Register(name string, fn Extractor) error {
	if !extractorName.MatchString(name) {
		return errors.Newf(errors.ErrInvalidInput, "invalid extractor name %q", name)
	}
	if fn == nil {
		return errors.Newf(errors.ErrInvalidInput, "extractor %q is nil", name)
	}
	e.mu.Lock()
	e.tree.Insert(name, fn)
	e.mu.Unlock()
	return nil
}

func (e *Extractors) Lookup(name string) (Extractor, bool) {
	e.mu.RLock()
	v, ok := e.tree.Get(name)
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return v.(Extractor), true
}

// List returns the registered names starting with prefix, in order.
func (e *Extractors) List(prefix string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var names []string
	e.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		names = append(names, k)
		return false
	})
	return names
}

func (e *Extractors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Len()
}

// OnCall installs a hook run after every extractor invocation.
func (e *Extractors) OnCall(fn func(name string, passed bool)) {
	e.mu.Lock()
	e.onCall = fn
	e.mu.Unlock()
}

// Call runs the extractor registered under name. It returns the extracted
// value and true on a pass, false on any other result, and an
// UNREGISTERED_EXTRACTOR error when nothing is registered under name.
func (e *Extractors) Call(name string, v any) (any, bool, error) {
	e.mu.RLock()
	raw, ok := e.tree.Get(name)
	hook := e.onCall
	e.mu.RUnlock()
	if !ok {
		return nil, false, errors.Newf(errors.ErrUnregisteredExtractor, "unregistered extractor $%s", name).
			WithDetail("extractor", name)
	}

	var (
		out    any
		passed bool
	)
	switch res := raw.(Extractor)(v, makePass).(type) {
	case Pass:
		out, passed = res.Value, true
	case *Pass:
		if res != nil {
			out, passed = res.Value, true
		}
	}
	if hook != nil {
		hook(name, passed)
	}
	return out, passed, nil
}
