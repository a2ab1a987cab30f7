package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/internal/config"
	"github.com/wolverine07/langos/internal/logger"
	"github.com/wolverine07/langos/internal/metrics"
	"github.com/wolverine07/langos/internal/storageserver"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a Storage Server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadStorageServerConfig(configFile)
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

	var m *metrics.StorageServerMetrics
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		m = metrics.NewStorageServerMetrics()

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

	srv, err := storageserver.New(cfg.DataDir, m)
	if err != nil {
		return fmt.Errorf("init storage server: %w", err)
	}
	srv.MaxMessageSize = int(cfg.MaxMessageSize)

	_, clientPortStr, err := net.SplitHostPort(cfg.ClientAddr)
	if err != nil {
		return fmt.Errorf("parse client_addr: %w", err)
	}
	clientPort, err := strconv.Atoi(clientPortStr)
	if err != nil {
		return fmt.Errorf("parse client_addr port: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nmConn, err := srv.ConnectNM(ctx, cfg.NMAddr, clientPort)
	if err != nil {
		return fmt.Errorf("connect to name server: %w", err)
	}
	defer nmConn.Close()

	go srv.ListenNM(ctx, nmConn)
	notify := storageserver.NotifyNM(ctx, nmConn)

	go srv.RunCompactor(ctx, storageserver.CompactionConfig{
		Enabled:    cfg.Compaction.Enabled,
		IdleWindow: cfg.Compaction.IdleWindow,
	})

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(ctx, cfg.ListenAddr, notify)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("storage server running, press Ctrl+C to stop", "addr", cfg.ListenAddr)

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
