package matcher

import (
	"time"

	"github.com/rs/zerolog/log"

	"pmatch/pkg/errors"
)

// Call dispatches args and returns the handler result of the first
// matching alternative, or ErrPatternsExhausted.
func (d *Dispatcher) Call(args ...any) (any, error) {
	res, err := d.Match(args...)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Match is Call that also reports which alternative matched and what it
// captured.
func (d *Dispatcher) Match(args ...any) (Result, error) {
	start := time.Now()
	res, err := d.head.match(d.env.Runtime, args)

	outcome := OutcomeMatched
	switch {
	case err == nil:
	case errors.IsErrorCode(err, errors.ErrPatternsExhausted):
		outcome = OutcomeExhausted
		log.Debug().Int("alternatives", d.head.Len()).Msg("all patterns exhausted")
	default:
		outcome = OutcomeError
		log.Debug().Err(err).Msg("dispatch failed")
	}
	d.env.observer.Dispatched(outcome, time.Since(start))
	return res, err
}

// Alt returns a new dispatcher that tries pattern after every alternative
// of d. d itself is not modified.
func (d *Dispatcher) Alt(pattern string, then Handler) (*Dispatcher, error) {
	proc, err := d.env.cache.Get(pattern)
	if err != nil {
		return nil, err
	}
	return d.env.build(proc, then, d.head.Clone()), nil
}

// AltFunc is Alt for a hand written procedure.
func (d *Dispatcher) AltFunc(proc Proc, then Handler) *Dispatcher {
	return d.env.build(proc, then, d.head.Clone())
}

// AltCases appends cases in order after the alternatives of d.
func (d *Dispatcher) AltCases(cases []Case) (*Dispatcher, error) {
	return d.env.appendCases(d.head.Clone(), cases)
}

// Splice returns a dispatcher trying the alternatives of d, then those of
// other.
func (d *Dispatcher) Splice(other *Dispatcher) (*Dispatcher, error) {
	return d.env.Join(d, other)
}

// Patterns lists the canonical form of every alternative in order.
func (d *Dispatcher) Patterns() []string {
	var out []string
	for n := d.head; n != nil; n = n.next {
		out = append(out, n.Pattern())
	}
	return out
}

func (d *Dispatcher) Len() int { return d.head.Len() }

func (d *Dispatcher) Env() *Env { return d.env }
