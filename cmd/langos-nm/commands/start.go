package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/internal/config"
	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/metrics"
	"github.com/wolverine07/langos/internal/nameserver"
	"github.com/wolverine07/langos/internal/nameserver/persistence"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Name Server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadNameServerConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var m *metrics.NameServerMetrics
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		m = metrics.NewNameServerMetrics()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			logger.Info("metrics endpoint listening", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", logger.Err(err))
			}
		}()
	}

	store, err := persistence.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open persistence store: %w", err)
	}
	defer store.Close()

	srv := nameserver.New(store, cfg.InfoCacheSize, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("name server running, press Ctrl+C to stop", "addr", cfg.ListenAddr)

	select {
	case <-sigCh:
		signal.Stop(sigCh)
		logger.Info("shutdown signal received")
		cancel()
		return <-serveDone
	case err := <-serveDone:
		signal.Stop(sigCh)
		return err
	}
}
