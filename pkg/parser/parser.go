// Package parser turns pattern text into an ast.Node tree.
//
// The grammar is a comma separated list of patterns, optionally containing
// a single rest element per list:
//
//	_  null  undefined  true  false  -1.5e3  "str"  'str'
//	ident  ident@[..]  [a, ...rest]  {key, "k": p, ...}
//	Class  Class(a, b)  Class{key}  $extractor  $extractor(p)
//
// Syntax errors are reported as *SyntaxError values that point at the
// failing column.
package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"unicode/utf16"

	"pmatch/pkg/ast"
)

var (
	reUndefined = regexp.MustCompile(`^undefined\b`)
	reNull      = regexp.MustCompile(`^null\b`)
	reBoolean   = regexp.MustCompile(`^(true|false)\b`)

	reIdent     = regexp.MustCompile(`^[a-z][_$a-zA-Z0-9]*`)
	reJSIdent   = regexp.MustCompile(`^[_$a-zA-Z][_$a-zA-Z0-9]*`)
	reClass     = regexp.MustCompile(`^[A-Z][_$a-zA-Z0-9]*`)
	reExtractor = regexp.MustCompile(`^\$([_$a-zA-Z][_$a-zA-Z0-9]*)`)

	reInteger = regexp.MustCompile(`^(0|[1-9][0-9]*)`)
	reDigits  = regexp.MustCompile(`^[0-9]+`)
	reESign   = regexp.MustCompile(`^[eE][+-]?`)

	reDoubleQuoted = regexp.MustCompile(`^[^"\\\n\r]+`)
	reSingleQuoted = regexp.MustCompile(`^[^'\\\n\r]+`)
	reHexEscape    = regexp.MustCompile(`^\\x([0-9a-fA-F]{2})`)
	reUnicode      = regexp.MustCompile(`^\\u([0-9a-fA-F]{4})`)
	reCharEscape   = regexp.MustCompile(`^\\(['"\\bfnrtv])`)
	reAnyEscape    = regexp.MustCompile(`^\\(.)`)
)

var charEscapes = map[string]rune{
	`'`: '\'', `"`: '"', `\`: '\\',
	"b": '\b', "f": '\f', "n": '\n', "r": '\r', "t": '\t', "v": '\v',
}

type parser struct {
	cur *cursor
}

// Parse parses a full argument list. Any input left over after the list is
// a syntax error.
func Parse(text string) (n *ast.Node, err error) {
	p := &parser{cur: newCursor(text)}
	defer p.recover(&err)
	return p.start(), nil
}

// Canonical parses text and returns the canonical form of the argument list.
func Canonical(text string) (string, error) {
	n, err := Parse(text)
	if err != nil {
		return "", err
	}
	return n.Canonical, nil
}

func (p *parser) start() *ast.Node {
	p.cur.skipWS()
	n := ast.ArgumentList(p.restPatterns())
	if !p.cur.skipWS().done() {
		p.fail("Unexpected character")
	}
	return n
}

func (p *parser) restPatterns() []*ast.Node {
	return p.commaSeparated(p.restPattern)
}

func (p *parser) objectPatterns() []*ast.Node {
	return p.commaSeparated(p.objectPattern)
}

// commaSeparated collects elements until one fails to parse or no comma
// follows. A trailing comma is accepted. Only one rest element may appear.
func (p *parser) commaSeparated(elem func() *ast.Node) []*ast.Node {
	var (
		out   []*ast.Node
		rests int
	)
	for {
		start := p.cur.off
		n := elem()
		if n == nil {
			break
		}
		if n.Kind == ast.KindRest {
			rests++
			if rests > 1 {
				p.cur.put(p.cur.input[start:p.cur.off])
				p.fail("Multiple ...'s not allowed")
			}
		}
		out = append(out, n)
		if !p.cur.skipWS().takeString(",") {
			break
		}
		p.cur.skipWS()
	}
	return out
}

func (p *parser) restPattern() *ast.Node {
	if n := p.rest(); n != nil {
		return n
	}
	n := p.pattern()
	if n != nil && p.cur.takeString("...") {
		return ast.Rest(n)
	}
	return n
}

func (p *parser) rest() *ast.Node {
	if !p.cur.takeString("...") {
		return nil
	}
	return ast.Rest(p.pattern())
}

func (p *parser) pattern() *ast.Node {
	switch {
	case p.cur.takeString("_"):
		return ast.Wildcard()
	case p.cur.takeRegexp(reNull) != nil:
		return ast.Null()
	case p.cur.takeRegexp(reUndefined) != nil:
		return ast.Undefined()
	}
	if m := p.cur.takeRegexp(reBoolean); m != nil {
		return ast.Boolean(m[1] == "true")
	}
	if n := p.number(); n != nil {
		return n
	}
	if s, ok := p.string(); ok {
		return ast.String(s)
	}
	if n := p.class(); n != nil {
		return n
	}
	if n := p.extractor(); n != nil {
		return n
	}
	if n := p.array(); n != nil {
		return n
	}
	if n := p.object(); n != nil {
		return n
	}
	return p.identOrBinder()
}

func (p *parser) number() *ast.Node {
	start := p.cur.off
	neg := p.cur.takeString("-")
	whole := p.cur.takeRegexp(reInteger) != nil
	frac := false
	// "1..." is a postfix rest on 1, not a fraction.
	if !p.cur.peek("...") && p.cur.takeString(".") {
		if p.cur.takeRegexp(reDigits) == nil {
			p.fail("Expected digit")
		}
		frac = true
	}
	if !whole && !frac {
		if neg {
			p.fail("Expected number")
		}
		return nil
	}
	if p.cur.takeRegexp(reESign) != nil {
		if p.cur.takeRegexp(reDigits) == nil {
			p.fail("Expected digit")
		}
	}
	f, err := strconv.ParseFloat(p.cur.input[start:p.cur.off], 64)
	// Underflow rounds to zero and is kept. Overflow has no literal form.
	if err != nil && (!errors.Is(err, strconv.ErrRange) || math.IsInf(f, 0)) {
		p.cur.off = start
		p.fail("Invalid number")
	}
	return ast.Number(f)
}

func (p *parser) string() (string, bool) {
	if s, ok := p.quoted(`"`, reDoubleQuoted); ok {
		return s, true
	}
	return p.quoted(`'`, reSingleQuoted)
}

// quoted decodes into UTF-16 units first so that \u escapes forming a
// surrogate pair combine into one rune.
func (p *parser) quoted(q string, plain *regexp.Regexp) (string, bool) {
	if !p.cur.takeString(q) {
		return "", false
	}
	var units []uint16
	for {
		if m := p.cur.takeRegexp(plain); m != nil {
			units = append(units, utf16.Encode([]rune(m[0]))...)
			continue
		}
		u, ok := p.escape()
		if !ok {
			break
		}
		units = append(units, u...)
	}
	if !p.cur.takeString(q) {
		p.fail("Expected " + q)
	}
	return string(utf16.Decode(units)), true
}

func (p *parser) escape() ([]uint16, bool) {
	if !p.cur.peek(`\`) {
		return nil, false
	}
	if buf := p.cur.buffer(); p.cur.peek(`\0`) && (len(buf) < 3 || buf[2] < '0' || buf[2] > '9') {
		p.cur.take(2)
		return []uint16{0}, true
	}
	for _, re := range []*regexp.Regexp{reHexEscape, reUnicode} {
		if m := p.cur.takeRegexp(re); m != nil {
			u, _ := strconv.ParseUint(m[1], 16, 16)
			return []uint16{uint16(u)}, true
		}
	}
	if m := p.cur.takeRegexp(reCharEscape); m != nil {
		return []uint16{uint16(charEscapes[m[1]])}, true
	}
	if m := p.cur.takeRegexp(reAnyEscape); m != nil {
		return utf16.Encode([]rune(m[1])), true
	}
	return nil, false
}

func (p *parser) class() *ast.Node {
	m := p.cur.takeRegexp(reClass)
	if m == nil {
		return nil
	}
	if obj := p.object(); obj != nil {
		return ast.Class(m[0], obj)
	}
	if args, ok := p.series("(", ")", p.restPatterns); ok {
		return ast.Class(m[0], ast.Array(args))
	}
	return ast.Class(m[0], nil)
}

func (p *parser) extractor() *ast.Node {
	m := p.cur.takeRegexp(reExtractor)
	if m == nil {
		return nil
	}
	if !p.cur.takeString("(") {
		return ast.Extractor(m[1], nil)
	}
	if p.cur.skipWS().takeString(")") {
		return ast.Extractor(m[1], nil)
	}
	sub := p.pattern()
	if sub == nil {
		p.fail("Expected pattern")
	}
	if !p.cur.skipWS().takeString(")") {
		p.fail("Expected )")
	}
	return ast.Extractor(m[1], sub)
}

func (p *parser) array() *ast.Node {
	if children, ok := p.series("[", "]", p.restPatterns); ok {
		return ast.Array(children)
	}
	return nil
}

func (p *parser) object() *ast.Node {
	if children, ok := p.series("{", "}", p.objectPatterns); ok {
		return ast.Object(children)
	}
	return nil
}

func (p *parser) series(open, close string, elems func() []*ast.Node) ([]*ast.Node, bool) {
	if !p.cur.takeString(open) {
		return nil, false
	}
	p.cur.skipWS()
	children := elems()
	if !p.cur.skipWS().takeString(close) {
		p.fail("Expected " + close)
	}
	return children, true
}

// objectPattern parses a key, a key-value pair or a rest element. A named
// rest may be written `...name` or `name...`.
func (p *parser) objectPattern() *ast.Node {
	if p.cur.takeString("...") {
		if m := p.cur.takeRegexp(reIdent); m != nil {
			return ast.Rest(ast.Identifier(m[0]))
		}
		return ast.Rest(nil)
	}
	name, bare, ok := p.key()
	if !ok {
		return nil
	}
	if bare && p.cur.takeString("...") {
		return ast.Rest(ast.Identifier(name))
	}
	if p.cur.skipWS().takeString(":") {
		p.cur.skipWS()
		sub := p.pattern()
		if sub == nil {
			p.fail("Expected pattern")
		}
		return ast.KeyValue(name, sub)
	}
	return ast.Key(name)
}

// key returns the key name and whether it was written as a bare identifier.
func (p *parser) key() (string, bool, bool) {
	if s, ok := p.string(); ok {
		return s, false, true
	}
	if m := p.cur.takeRegexp(reJSIdent); m != nil {
		return m[0], true, true
	}
	return "", false, false
}

func (p *parser) identOrBinder() *ast.Node {
	m := p.cur.takeRegexp(reIdent)
	if m == nil {
		return nil
	}
	if !p.cur.takeString("@") {
		return ast.Identifier(m[0])
	}
	sub := p.capturePattern()
	if sub == nil {
		p.fail("Expected class, array or object pattern")
	}
	return ast.Binder(m[0], sub)
}

// capturePattern leaves out literals: binding a literal is pointless since
// its value is already known.
func (p *parser) capturePattern() *ast.Node {
	if n := p.class(); n != nil {
		return n
	}
	if n := p.array(); n != nil {
		return n
	}
	return p.object()
}
