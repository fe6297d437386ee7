package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/finjector/internal/cli"
	"github.com/aretw0/finjector/internal/config"
	adminhttp "github.com/aretw0/finjector/pkg/adapters/http"
	"github.com/aretw0/finjector/pkg/adapters/mcp"
	"github.com/aretw0/finjector/pkg/ports"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the failure-probe controls as MCP tools.

By default the tools drive a running daemon through its admin API (--admin).
With --embedded an injector is started in-process from the configuration.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		embedded, _ := cmd.Flags().GetBool("embedded")

		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger := cli.NewLogger(cfg.Log)
		slog.SetDefault(logger)

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		var ctrl ports.Controller
		if embedded {
			d, err := cli.NewDaemon(sc, cfg, logger)
			if err != nil {
				return fmt.Errorf("error initializing finjector: %w", err)
			}
			defer d.Injector.Close()
			ctrl = d.Injector
		} else {
			admin, _ := cmd.Flags().GetString("admin")
			ctrl = adminhttp.NewClient(admin)
		}

		srv := mcp.NewServer(ctrl)
		switch transport {
		case "stdio":
			slog.Info("Starting finjector MCP Server (Stdio)...")
			return srv.ServeStdio()
		case "sse":
			slog.Info("Starting finjector MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(sc, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("embedded", false, "Run an in-process injector instead of calling --admin")
}
