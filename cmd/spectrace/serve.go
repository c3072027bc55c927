package main

import (
	"github.com/dusk-indust/spectrace/internal/graph"
	"github.com/dusk-indust/spectrace/internal/mcptools"
	"github.com/spf13/cobra"
)

func newServeMCPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run as an MCP server on stdio",
		Long: `serve-mcp exposes the measure_coverage, list_uncovered and
trace_requirement tools over the Model Context Protocol on stdin/stdout.
--config (or spectrace.yaml in the working directory) is the configuration
the tools measure by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := g.logger()
			configPath := g.configPath()

			svc := mcptools.NewCoverageService(configPath, logger, func() (graph.Store, error) {
				return openStore("")
			})
			defer svc.Close()

			logger.Info().Str("config", configPath).Msg("serving MCP on stdio")
			return mcptools.RunStdio(cmd.Context(), mcptools.NewCoverageMCPServer(svc))
		},
	}
}
