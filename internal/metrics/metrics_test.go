package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmatch/pkg/matcher"
)

func TestObserverThroughEnv(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	env := matcher.NewEnv(matcher.WithObserver(m))

	d, err := env.Pattern("[x]", matcher.Captures)
	require.NoError(t, err)
	_, err = env.Compile("[ x ]")
	require.NoError(t, err)
	_, err = env.Compile("[x]")
	require.NoError(t, err)

	_, err = d.Call(1)
	require.NoError(t, err)
	_, err = d.Call(1, 2)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compiles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(matcher.LevelMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(matcher.LevelCanonical)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(matcher.LevelRaw)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues(matcher.OutcomeMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dispatches.WithLabelValues(matcher.OutcomeExhausted)))
}

func TestExtractorCalled(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ExtractorCalled("email", true)
	m.ExtractorCalled("email", false)
	m.ExtractorCalled("email", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractorCalls.WithLabelValues("email", "pass")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExtractorCalls.WithLabelValues("email", "fail")))
}

func TestCompiledObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Compiled(3 * time.Millisecond)

	n, err := testutil.GatherAndCount(reg, "pmatch_compile_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RequestsTotal.WithLabelValues("http", "ok").Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `pmatch_requests_total{protocol="http",status="ok"} 1`)
}
