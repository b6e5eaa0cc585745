// Command simbridge runs the embedded control-plane server against a virtual
// simulation station.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simforge/simbridge/internal/bridge"
	"github.com/simforge/simbridge/internal/config"
	"github.com/simforge/simbridge/internal/logging"
	"github.com/simforge/simbridge/internal/station/virtual"
)

const serverVersion = "0.2.0"

var (
	flagConfig  string
	flagAddr    string
	flagLogFile string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:     "simbridge",
	Short:   "Control-plane server bridging tool-calling clients to a robot simulation host",
	Version: serverVersion,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to YAML configuration file")
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address, overrides the config file")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func run() error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
	if flagDebug {
		cfg.Log.Debug = true
	}

	logger, closeLogs, err := logging.New(logging.Options{
		Debug: cfg.Log.Debug,
		File:  cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closeLogs()
	slog.SetDefault(logger)

	logger.Info("starting simbridge",
		"version", serverVersion,
		"addr", cfg.Server.Addr,
		"station", cfg.Station.Name,
	)

	host := virtual.NewDefaultHost(cfg.Station.Name)
	srv := bridge.New(bridge.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}, host, logger)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start control plane: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig.String())

	if err := srv.Close(); err != nil {
		logger.Warn("listener close failed", "error", err)
	}
	logger.Info("simbridge shutdown complete")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
