// Command simbridge-mcp exposes the control plane to MCP clients over stdio.
// It holds no state of its own; every tool call becomes one HTTP request
// against a running simbridge instance.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/simforge/simbridge/internal/logging"
	"github.com/simforge/simbridge/internal/toolserver"
)

const toolServerVersion = "0.2.0"

var (
	flagBaseURL string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:     "simbridge-mcp",
	Short:   "MCP tool server mapping tool calls to the simbridge control plane",
	Version: toolServerVersion,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr only; stdout carries the MCP stream.
		logger, closeLogs, err := logging.New(logging.Options{Debug: flagDebug})
		if err != nil {
			return err
		}
		defer closeLogs()
		slog.SetDefault(logger)

		srv := toolserver.New(toolserver.Config{
			Name:    "simbridge-mcp",
			Version: toolServerVersion,
			BaseURL: flagBaseURL,
		}, logger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagBaseURL, "base-url", "http://127.0.0.1:9847", "Control plane base URL")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
