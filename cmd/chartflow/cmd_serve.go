package main

import (
	"github.com/dusk-indust/chartflow/internal/mcptools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveFlags struct {
	engine engineFlags
	addr   string
}

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the pipeline as MCP tools",
	Long: `Starts an MCP server exposing run_pipeline and list_stages. The server
speaks stdio by default; with --addr it serves streamable HTTP instead.

Logs go to stderr so they never mix with the stdio transport.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg, serveFlags.engine, logger)
		if err != nil {
			return err
		}
		server := mcptools.NewServer(mcptools.NewPipelineService(engine, logger))

		if serveFlags.addr != "" {
			logger.Info("serving MCP over HTTP", zap.String("addr", serveFlags.addr))
			return mcptools.ServeHTTP(cmd.Context(), server, serveFlags.addr)
		}
		logger.Info("serving MCP over stdio")
		return mcptools.RunStdio(cmd.Context(), server)
	},
}

func init() {
	addEngineFlags(serveMCPCmd, &serveFlags.engine)
	serveMCPCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "serve streamable HTTP on this address, e.g. :8080")
}
