package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"snag/internal/logging"
	"snag/internal/media"
	"snag/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if flagListen != "" {
		addr = flagListen
	}

	logger = logging.New(os.Stderr, cfg.LogLevel, cfg.Debug, true)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, cleanup, err := buildService(reg)
	if err != nil {
		return err
	}
	defer cleanup()

	router := server.NewRouter(svc, server.Options{
		RateLimit:      cfg.RateLimit,
		DefaultQuality: cfg.Quality,
		DefaultKind:    media.KindHint(cfg.Kind),
		Gatherer:       reg,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, addr, router, logger)
}
