package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petrijr/nodeflux/internal/logging"
	"github.com/petrijr/nodeflux/internal/metrics"
	"github.com/petrijr/nodeflux/internal/persistence"
	"github.com/petrijr/nodeflux/internal/transport/httpapi"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the node and workflow API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	_ = a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	store, err := persistence.Open(ctx, a.cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := metrics.NewPrometheusObserver(promReg)
	if err != nil {
		return err
	}

	dispatcher, err := buildDispatcher(ctx, a.cfg, prom)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(a.cfg.HTTP.Addr, httpapi.Config{
		Dispatcher: dispatcher,
		Workflows:  store,
		Gatherer:   promReg,
		Logger:     logging.New("httpapi"),
	})

	a.logger.Info("starting",
		slog.String("version", version),
		slog.String("addr", a.cfg.HTTP.Addr),
		slog.String("store", a.cfg.Store.Driver),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
