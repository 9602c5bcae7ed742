package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitewait/config"
	"github.com/jpalmerr/sitewait/internal/monitor"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadMonitor reads the config file named by --config and builds a Monitor.
func loadMonitor(cmd *cobra.Command, logger *slog.Logger) (*config.Config, *monitor.Monitor, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build checks: %w", err)
	}

	m, err := monitor.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create monitor: %w", err)
	}
	return cfg, m, nil
}

// serveCmd runs checks on a schedule and serves the dashboard.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run checks on a schedule and serve the dashboard",
	Long: `Run the configured checks on their schedule and serve their results.

The server will:
  - Load configuration from the specified YAML file
  - Run every check immediately, then at its interval
  - Serve the dashboard UI and JSON API on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sitewait serve -c config.yaml
  sitewait serve --config /etc/sitewait/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	cfg, m, err := loadMonitor(cmd, logger)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"checks", len(cfg.Checks),
		"grids", len(cfg.Grids),
		"base_url", cfg.BaseURL,
	)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start monitor - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// open browsers need time to close
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
