package server

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmatch/internal/metrics"
	"pmatch/pkg/errors"
	"pmatch/pkg/matcher"
)

func startServer(t *testing.T, d *matcher.Dispatcher) (*TCPServer, net.Conn) {
	t.Helper()
	current := &matcher.AtomicDispatcher{}
	if d != nil {
		current.Store(d)
	}
	s := NewTCPServer("127.0.0.1:0", current, metrics.New(prometheus.NewRegistry()))

	l, err := net.Listen("tcp", s.ListenAddr)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	conn, err := net.DialTimeout("tcp", l.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		require.NoError(t, s.Close())
		assert.NoError(t, <-done)
	})
	return s, conn
}

func roundTrip(t *testing.T, conn net.Conn, r *bufio.Reader, line string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := fmt.Fprintln(conn, line)
	require.NoError(t, err)
	reply, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(reply, &out))
	return out
}

func TestLineProtocol(t *testing.T) {
	env := matcher.NewEnv()
	d, err := env.Cases([]matcher.Case{
		{Pattern: "'ping'", Handler: matcher.Value("pong")},
		{Pattern: "op, [...xs]", Handler: matcher.Captures},
	})
	require.NoError(t, err)

	s, conn := startServer(t, d)
	r := bufio.NewReader(conn)

	out := roundTrip(t, conn, r, `["ping"]`)
	assert.Equal(t, "pong", out["result"])
	assert.Equal(t, 0.0, out["case"])

	out = roundTrip(t, conn, r, `["sum", [1, 2, 3]]`)
	assert.Equal(t, 1.0, out["case"])
	assert.Equal(t, []any{"sum", []any{1.0, 2.0, 3.0}}, out["result"])

	out = roundTrip(t, conn, r, `[1, 2, 3]`)
	assert.Equal(t, string(errors.ErrPatternsExhausted), out["code"])

	out = roundTrip(t, conn, r, `{"not": "an array"}`)
	assert.Equal(t, string(errors.ErrInvalidInput), out["code"])

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Metrics.RequestsTotal.WithLabelValues("tcp", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.RequestsTotal.WithLabelValues("tcp", "exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeDecode, "tcp")))
}

func TestNoCaseSetLoaded(t *testing.T) {
	_, conn := startServer(t, nil)
	r := bufio.NewReader(conn)

	out := roundTrip(t, conn, r, `[1]`)
	assert.Equal(t, string(errors.ErrNotFound), out["code"])
}

func TestSwapWhileConnected(t *testing.T) {
	env := matcher.NewEnv()
	first, err := env.Pattern("_", matcher.Value("first"))
	require.NoError(t, err)
	second, err := env.Pattern("_", matcher.Value("second"))
	require.NoError(t, err)

	s, conn := startServer(t, first)
	r := bufio.NewReader(conn)

	assert.Equal(t, "first", roundTrip(t, conn, r, `[0]`)["result"])
	s.Dispatcher.Store(second)
	assert.Equal(t, "second", roundTrip(t, conn, r, `[0]`)["result"])
}
