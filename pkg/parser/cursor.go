package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// cursor is the parse state: the original text and how much of it has been
// consumed. The unconsumed remainder is the buffer.
type cursor struct {
	input string
	off   int
}

func newCursor(text string) *cursor {
	return &cursor{input: text}
}

func (c *cursor) buffer() string {
	return c.input[c.off:]
}

func (c *cursor) done() bool {
	return c.off >= len(c.input)
}

// column is the 1-based rune column of the next unconsumed character.
func (c *cursor) column() int {
	return utf8.RuneCountInString(c.input[:c.off]) + 1
}

func (c *cursor) peek(s string) bool {
	return strings.HasPrefix(c.buffer(), s)
}

// take consumes n bytes and returns them.
func (c *cursor) take(n int) string {
	s := c.input[c.off : c.off+n]
	c.off += n
	return s
}

// takeString consumes s if the buffer starts with it.
func (c *cursor) takeString(s string) bool {
	if !c.peek(s) {
		return false
	}
	c.off += len(s)
	return true
}

// takeRegexp consumes the match of an anchored expression and returns its
// submatches, or nil when the buffer does not start with a match.
func (c *cursor) takeRegexp(re *regexp.Regexp) []string {
	m := re.FindStringSubmatch(c.buffer())
	if m == nil || m[0] == "" {
		return nil
	}
	c.off += len(m[0])
	return m
}

func (c *cursor) skipWS() *cursor {
	for c.off < len(c.input) {
		switch c.input[c.off] {
		case ' ', '\t', '\n', '\r':
			c.off++
		default:
			return c
		}
	}
	return c
}

// put pushes already-consumed text back onto the buffer so an error can
// point at where that text starts.
func (c *cursor) put(s string) {
	c.off -= len(s)
	if c.off < 0 {
		c.off = 0
	}
}
