package metrics

import (
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Handler serves /metrics from g along with the pprof endpoints.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartMetricsServer starts the HTTP server for Prometheus metrics
func StartMetricsServer(addr string, g prometheus.Gatherer) error {
	log.Info().Msgf("Metrics server listening on %s", addr)
	log.Info().Msgf("pprof endpoints available at http://%s/debug/pprof/", addr)

	if err := http.ListenAndServe(addr, Handler(g)); err != nil {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
