package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pmatch collectors. It implements matcher.Observer.
type Metrics struct {
	// CacheLookups counts pattern cache lookups by the level that answered
	CacheLookups *prometheus.CounterVec

	// Compiles counts patterns compiled
	Compiles prometheus.Counter

	// CompileDuration tracks parse and compile time of cache misses
	CompileDuration prometheus.Histogram

	// Dispatches counts dispatcher calls by outcome
	Dispatches *prometheus.CounterVec

	// DispatchDuration tracks dispatch duration
	DispatchDuration *prometheus.HistogramVec

	// ExtractorCalls counts extractor invocations by name and result
	ExtractorCalls *prometheus.CounterVec

	// RequestsTotal counts requests served by protocol and status
	RequestsTotal *prometheus.CounterVec

	// ErrorsTotal counts errors by type and protocol
	ErrorsTotal *prometheus.CounterVec

	// Alternatives is the number of alternatives in the active case set
	Alternatives prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmatch_cache_lookups_total",
				Help: "Total number of pattern cache lookups by answering level",
			},
			[]string{"level"},
		),
		Compiles: f.NewCounter(
			prometheus.CounterOpts{
				Name: "pmatch_compiles_total",
				Help: "Total number of patterns compiled",
			},
		),
		CompileDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pmatch_compile_duration_seconds",
				Help:    "Pattern compile duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
		Dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmatch_dispatches_total",
				Help: "Total number of dispatcher calls by outcome",
			},
			[]string{"outcome"},
		),
		DispatchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pmatch_dispatch_duration_seconds",
				Help:    "Dispatch duration in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"outcome"},
		),
		ExtractorCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmatch_extractor_calls_total",
				Help: "Total number of extractor calls by name and result",
			},
			[]string{"extractor", "result"},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmatch_requests_total",
				Help: "Total number of requests served",
			},
			[]string{"protocol", "status"},
		),
		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pmatch_errors_total",
				Help: "Total number of errors by type",
			},
			[]string{"type", "protocol"},
		),
		Alternatives: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pmatch_alternatives",
				Help: "Number of alternatives in the active case set",
			},
		),
	}
}

func (m *Metrics) CacheLookup(level string) { m.CacheLookups.WithLabelValues(level).Inc() }

func (m *Metrics) Compiled(d time.Duration) {
	m.Compiles.Inc()
	m.CompileDuration.Observe(d.Seconds())
}

func (m *Metrics) Dispatched(outcome string, d time.Duration) {
	m.Dispatches.WithLabelValues(outcome).Inc()
	m.DispatchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ExtractorCalled has the signature runtime.Extractors.OnCall expects.
func (m *Metrics) ExtractorCalled(name string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	m.ExtractorCalls.WithLabelValues(name, result).Inc()
}

// Error type constants
const (
	ErrorTypeDecode      = "decode"
	ErrorTypeDispatch    = "dispatch"
	ErrorTypeClientWrite = "client_write"
	ErrorTypeCasesFetch  = "cases_fetch"
	ErrorTypeCasesLoad   = "cases_load"
)
