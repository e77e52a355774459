package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pmatch/internal/api"
	"pmatch/internal/cases"
	"pmatch/internal/client"
	"pmatch/internal/logging"
	"pmatch/internal/metrics"
	"pmatch/internal/server"
	"pmatch/pkg/matcher"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: MsgServeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer logging.Close()
			return a.serve(ctx, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		},
	}

	f := cmd.Flags()
	f.String("listen", "", MsgFlagListen)
	f.String("tcp", "", MsgFlagTCP)
	f.String("metrics", "", MsgFlagMetrics)
	f.String("cases", "", MsgFlagCases)
	f.String("cases-url", "", MsgFlagCasesURL)
	f.Duration("fetch-interval", 0, MsgFlagFetchInterval)
	return cmd
}

func (a *app) serve(ctx context.Context, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	cfg := a.cfg
	logger := logging.Component("serve")

	logger.Info().Msg("pmatch " + version)
	logger.Info().Msgf("API: %q, TCP: %q, metrics: %q", cfg.Listen, cfg.TCP, cfg.Metrics)

	m := metrics.New(reg)
	env, err := a.newEnv(matcher.WithObserver(m))
	if err != nil {
		return err
	}
	env.Runtime.Extractors.OnCall(m.ExtractorCalled)

	current := &matcher.AtomicDispatcher{}
	updateChannel := make(chan *cases.File, 10)

	if cfg.Cases != "" {
		f, err := cases.Load(cfg.Cases)
		if err != nil {
			return err
		}
		if err := install(env, current, m, f); err != nil {
			return err
		}
		w, err := cases.Watch(cfg.Cases, func(f *cases.File, err error) {
			if err != nil {
				m.ErrorsTotal.WithLabelValues(metrics.ErrorTypeCasesLoad, "file").Inc()
				logger.Err(err).Msg("case file reload failed, keeping the current case set")
				return
			}
			queueUpdate(ctx, updateChannel, f)
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-updateChannel:
				if err := install(env, current, m, f); err != nil {
					m.ErrorsTotal.WithLabelValues(metrics.ErrorTypeCasesLoad, "update").Inc()
					logger.Err(err).Msg("case set update rejected")
				}
			}
		}
	}()

	if cfg.CasesURL != "" {
		go client.NewFetcher(cfg.CasesURL, cfg.FetchInterval, updateChannel, m).Start(ctx)
	} else if cfg.Cases == "" {
		logger.Warn().Msg("no case file or cases URL configured, waiting for POST /api/cases")
	}

	if cfg.Metrics != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics, gatherer); err != nil {
				logger.Err(err).Msg("Metrics server error:")
			}
		}()
	}

	apiServer := api.NewServer(cfg.Listen, env, current, m, updateChannel)
	tcpServer := server.NewTCPServer(cfg.TCP, current, m)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Listen != "" {
		g.Go(apiServer.Start)
	}
	if cfg.TCP != "" {
		g.Go(tcpServer.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = tcpServer.Close()
		return apiServer.Shutdown(sctx)
	})
	return g.Wait()
}

// queueUpdate hands f to the installer, giving up once ctx is done.
func queueUpdate(ctx context.Context, ch chan<- *cases.File, f *cases.File) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// install builds f and makes it the dispatcher every server uses.
func install(env *matcher.Env, current *matcher.AtomicDispatcher, m *metrics.Metrics, f *cases.File) error {
	d, err := f.Build(env)
	if err != nil {
		return err
	}
	current.Store(d)
	m.Alternatives.Set(float64(d.Len()))
	log.Info().Msgf("Case set updated successfully with %d cases", d.Len())
	return nil
}
