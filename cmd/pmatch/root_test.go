package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmatch/internal/cases"
	"pmatch/internal/config"
	"pmatch/pkg/errors"
	"pmatch/pkg/parser"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	xdg.Reload()
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolate(t)
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", "{ a : 'x', ...rest }")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":\"x\",...rest}\n", out)
}

func TestParseCommandAST(t *testing.T) {
	out, err := run(t, "parse", "--ast", "[x]")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "argumentList"`)
	assert.Contains(t, out, `"kind": "identifier"`)
	assert.Contains(t, out, `"canonical": "[x]"`)
}

func TestParseCommandSyntaxError(t *testing.T) {
	_, err := run(t, "parse", "[1,")
	require.Error(t, err)
	var syn *parser.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, errors.ErrSyntax, errors.GetErrorCode(err))
}

func TestExtractCommand(t *testing.T) {
	out, err := run(t, "extract", "{name, tags: [first, ...]}", `{"name": "n", "tags": ["a", "b"]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `["n", "a"]`, out)

	out, err = run(t, "extract", "[]", `[1]`)
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)

	_, err = run(t, "extract", "x", `{bad`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1 is not valid JSON")
}

func TestExtractCommandWithBuiltins(t *testing.T) {
	out, err := run(t, "--builtin-extractors", "email", "extract", "$email({user, host})", `"ann@example.org"`)
	require.NoError(t, err)
	assert.JSONEq(t, `["ann", "example.org"]`, out)

	out, err = run(t, "--builtin-extractors", "all", "extract", "$int(n)", `"7"`)
	require.NoError(t, err)
	assert.JSONEq(t, `[7]`, out)

	_, err = run(t, "extract", "$email(x)", `"ann@example.org"`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrUnregisteredExtractor, errors.GetErrorCode(err))
}

func writeCases(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - pattern: "{type: 'move', to: [x, y]}"
    result: {moveTo: [$1, $2]}
  - pattern: "{type: 'stop'}"
    result: stopped
`), 0o644))
	return path
}

func TestMatchCommand(t *testing.T) {
	path := writeCases(t)

	out, err := run(t, "match", "--cases", path, `{"type": "move", "to": [3, 4]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"case": 0,
		"pattern": "{\"type\":\"move\",\"to\":[x,y]}",
		"captures": [3, 4],
		"result": {"moveTo": [3, 4]}
	}`, out)

	_, err = run(t, "match", "--cases", path, `{"type": "jump"}`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrPatternsExhausted, errors.GetErrorCode(err))

	_, err = run(t, "match", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no case file given")
}

func TestExtractorsCommand(t *testing.T) {
	out, err := run(t, "extractors", "e")
	require.NoError(t, err)
	assert.Equal(t, "$email\n$etld1\n", out)

	out, err = run(t, "extractors")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 8)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pmatch version dev")
}

func TestRenderError(t *testing.T) {
	_, err := parser.Parse("[1,")
	require.Error(t, err)

	plain := renderError(err, false)
	assert.Equal(t, "Error: "+err.Error(), plain)
	assert.Contains(t, plain, "\n[1,\n")

	colored := renderError(err, true)
	assert.Contains(t, colored, "[1,")
	assert.Contains(t, colored, "^")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	isolate(t)
	a := &app{cfg: &config.Config{
		Listen:        "127.0.0.1:0",
		TCP:           "127.0.0.1:0",
		Cases:         writeCases(t),
		FetchInterval: time.Minute,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, prometheus.NewRegistry(), prometheus.NewRegistry()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeRejectsBadCaseFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cases": [{"pattern": "[,"}]}`), 0o644))
	a := &app{cfg: &config.Config{TCP: "127.0.0.1:0", Cases: path}}

	err := a.serve(context.Background(), prometheus.NewRegistry(), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCasesLoad, errors.GetErrorCode(err))
}

func TestQueueUpdateReturnsAfterCancel(t *testing.T) {
	ch := make(chan *cases.File, 1)
	f := &cases.File{}

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, queueUpdate(ctx, ch, f))
	cancel()

	// The channel is full and nobody drains it.
	done := make(chan bool, 1)
	go func() { done <- queueUpdate(ctx, ch, f) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("queueUpdate blocked after cancel")
	}
	assert.Same(t, f, <-ch)
}
