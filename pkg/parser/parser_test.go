package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmatch/pkg/ast"
	"pmatch/pkg/errors"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t ", ""},
		{"wildcard", "_", "_"},
		{"literals", "null, undefined, true, false", "null,undefined,true,false"},
		{"integer", "42", "42"},
		{"negative fraction", "-12.50", "-12.5"},
		{"exponent", "1e2", "100"},
		{"signed exponent", "15E-1", "1.5"},
		{"leading dot", ".5", "0.5"},
		{"single quoted", `'foo'`, `"foo"`},
		{"double quoted", `"foo"`, `"foo"`},
		{"escapes", `"a\tb\\c\"d"`, `"a\tb\\c\"d"`},
		{"vertical tab", `'\v'`, `"\x0b"`},
		{"null escape", `'\0'`, `"\x00"`},
		{"escaped quote in single", `'it\'s'`, `"it's"`},
		{"hex escape", `'\x41'`, `"A"`},
		{"unicode escape", `'\u00e9'`, `"\xe9"`},
		{"surrogate pair", `'\ud83d\ude00'`, `"\ud83d\ude00"`},
		{"raw astral rune", `'😀'`, `"\ud83d\ude00"`},
		{"unknown escape", `'\q'`, `"q"`},
		{"identifiers", "a, b2, c_$", "a,b2,c_$"},
		{"array", "[ a , b ]", "[a,b]"},
		{"nested array", "[[a], []]", "[[a],[]]"},
		{"prefix rest", "[...xs]", "[...xs]"},
		{"anonymous rest", "[a, ...]", "[a,...]"},
		{"postfix rest", "[x..., y]", "[...x,y]"},
		{"postfix rest on integer", "[1...]", "[...1]"},
		{"postfix rest on fraction", "[x, -2.5e1...]", "[x,...-25]"},
		{"postfix rest on string", "['a'...]", `[..."a"]`},
		{"underflow", "1e-400", "0"},
		{"rest pattern", "[...[a, b]]", "[...[a,b]]"},
		{"object keys", `{a, "b c", 'd'}`, `{"a","b c","d"}`},
		{"object key values", `{a: 1, b: [x]}`, `{"a":1,"b":[x]}`},
		{"object anonymous rest", "{a, ...}", `{"a",...}`},
		{"object named rest", "{a, ...r}", `{"a",...r}`},
		{"object postfix rest", "{a, b, c...}", `{"a","b",...c}`},
		{"class name", "Date", "Date"},
		{"class positional", "Point(x, _)", "Point(x,_)"},
		{"class empty positional", "Nil()", "Nil()"},
		{"class keyed", "Point{x, y: 0}", `Point{"x","y":0}`},
		{"extractor", "$email", "$email"},
		{"extractor sub", "$email( user )", "$email(user)"},
		{"extractor empty parens", "$email()", "$email"},
		{"binder object", "all@{a}", `all@{"a"}`},
		{"binder class", "p@Point(x)", "p@Point(x)"},
		{"trailing comma", "[a, b,]", "[a,b]"},
		{"keyword prefix ident", "nullable, trueish", "nullable,trueish"},
		{"multiline", "[a,\n b]", "[a,b]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, ast.KindArgumentList, n.Kind)
			assert.Equal(t, tt.want, n.Canonical)
		})
	}
}

func TestParseQuoteStylesShareCanonical(t *testing.T) {
	a, err := Canonical(`{'a': 'foo', b}`)
	require.NoError(t, err)
	b, err := Canonical(`{  "a":"foo" ,  'b' }`)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseCanonicalIsFixedPoint(t *testing.T) {
	inputs := []string{
		`[x, ...y, z]`,
		`{a, b: 'q\n', c...}`,
		`p@Point{x: -1.5e3, y: $num(n)}`,
		`Cons(h, t), _, [...[a, {k}]]`,
		`'☃', "\x7f"`,
		`[x, 1e308, -1.7976931348623157e308, 5e-324, 1e-400]`,
		`[0..., 1]`,
	}
	for _, in := range inputs {
		first, err := Canonical(in)
		require.NoError(t, err, in)
		second, err := Canonical(first)
		require.NoError(t, err, first)
		assert.Equal(t, first, second)
	}
}

func TestParseTree(t *testing.T) {
	n, err := Parse("x@Point{a, ...r}, [h, ...t]")
	require.NoError(t, err)
	require.Len(t, n.Children, 2)

	binder := n.Children[0]
	assert.Equal(t, ast.KindBinder, binder.Kind)
	assert.Equal(t, "x", binder.Name())
	class := binder.Child()
	assert.Equal(t, ast.KindClass, class.Kind)
	assert.Equal(t, ast.DestructureKeyed, class.Destructure)
	obj := class.Child()
	require.Len(t, obj.Children, 2)
	assert.Equal(t, ast.KindKey, obj.Children[0].Kind)
	assert.Equal(t, ast.KindRest, obj.Children[1].Kind)
	assert.Equal(t, ast.KindIdentifier, obj.Children[1].Child().Kind)

	arr := n.Children[1]
	assert.True(t, arr.HasRest())
	assert.Equal(t, ast.KindIdentifier, arr.Children[0].Kind)
}

func TestParseLiteralValues(t *testing.T) {
	n, err := Parse(`true, 2.5, 'hi'`)
	require.NoError(t, err)
	assert.Equal(t, true, n.Children[0].Value)
	assert.Equal(t, 2.5, n.Children[1].Value)
	assert.Equal(t, "hi", n.Children[2].Value)
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input  string
		reason string
		column int
	}{
		{"[a", "Expected ]", 3},
		{"{a", "Expected }", 3},
		{"Foo(a", "Expected )", 6},
		{`"abc`, `Expected "`, 5},
		{`'abc`, "Expected '", 5},
		{"-", "Expected number", 2},
		{"1.", "Expected digit", 3},
		{"1e", "Expected digit", 3},
		{"1e400", "Invalid number", 1},
		{"[x, -1e999]", "Invalid number", 5},
		{"a b", "Unexpected character", 3},
		{"x @[a]", "Unexpected character", 3},
		{"[...a, ...b]", "Multiple ...'s not allowed", 8},
		{"{a, ..., ...r}", "Multiple ...'s not allowed", 10},
		{"[x..., y...]", "Multiple ...'s not allowed", 8},
		{"x@1", "Expected class, array or object pattern", 3},
		{"{a:}", "Expected pattern", 4},
		{"$e(,)", "Expected pattern", 4},
		{"$e(a", "Expected )", 5},
		{"01", "Unexpected character", 2},
		{"_x", "Unexpected character", 2},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.reason, se.Reason)
			assert.Equal(t, tt.column, se.Column)
			assert.Equal(t, tt.input, se.Input)
		})
	}
}

func TestSyntaxErrorText(t *testing.T) {
	_, err := Parse("[...a, ...b]")
	require.Error(t, err)
	assert.Equal(t, "Multiple ...'s not allowed at column 8\n[...a, ...b]\n       ^", err.Error())
	assert.Equal(t, errors.ErrSyntax, errors.GetErrorCode(err))
}

func TestSyntaxErrorColumnCountsRunes(t *testing.T) {
	_, err := Parse(`'héllo' x`)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 9, se.Column)
}
