package parser

import (
	"fmt"
	"strings"

	"pmatch/pkg/errors"
)

// SyntaxError reports malformed pattern text. Its message is
//
//	<reason> at column <n>
//	<input>
//	<spaces>^
//
// with the caret under the failing column.
type SyntaxError struct {
	Reason string
	Column int
	Input  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at column %d\n%s\n%s^", e.Reason, e.Column, e.Input, strings.Repeat(" ", e.Column-1))
}

// ErrorCode implements errors.Coded.
func (e *SyntaxError) ErrorCode() errors.ErrorCode {
	return errors.ErrSyntax
}

func (p *parser) fail(reason string) {
	panic(&SyntaxError{Reason: reason, Column: p.cur.column(), Input: p.cur.input})
}

// recover turns a SyntaxError panic into an error return.
func (p *parser) recover(errp *error) {
	if x := recover(); x != nil {
		se, ok := x.(*SyntaxError)
		if !ok {
			panic(x)
		}
		*errp = se
	}
}
