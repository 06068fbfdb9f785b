package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/config"
	"github.com/bobmcallan/dns-mcp/internal/service"
	"github.com/bobmcallan/dns-mcp/internal/telemetry"
	"github.com/bobmcallan/dns-mcp/internal/transport"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dns_lookup tool over stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("transport", "", "Transport: stdio | http (overrides config)")
	cmd.Flags().IntP("port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().String("host", "", "HTTP host (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, configFiles, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "dns-mcp: %v\n", err)
		return err
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("transport", cfg.Server.Transport).
		Str("version", config.GetVersion()).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	shutdownTracing, err := startTracing(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	svc, err := service.NewDefault(cfg, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to initialize service")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch strings.ToLower(cfg.Server.Transport) {
	case config.TransportHTTP:
		err = transport.ServeHTTP(ctx, cfg.Server.Addr(), transport.NewHTTPHandler(svc, logger), logger)
	default:
		err = transport.NewStdioAdapter(svc, logger).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			logger.Info().Msg("shutdown signal received")
			err = nil
		}
	}

	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// startTracing installs the tracer provider from cfg. The returned func
// flushes pending spans and is safe to defer when tracing is disabled.
func startTracing(ctx context.Context, cfg *config.Config, logger *common.Logger) (func(), error) {
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Server.Name, config.GetVersion())
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to start tracing")
		return nil, err
	}
	if cfg.Telemetry.Enabled {
		logger.Info().Str("endpoint", cfg.Telemetry.Endpoint).Msg("tracing enabled")
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn().Str("error", err.Error()).Msg("failed to flush traces")
		}
	}, nil
}
