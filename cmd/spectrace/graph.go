package main

import (
	"fmt"

	"github.com/dusk-indust/spectrace/internal/graph"
	"github.com/dusk-indust/spectrace/internal/pipeline"
	"github.com/spf13/cobra"
)

func newGraphCmd(g *globalOptions) *cobra.Command {
	var (
		dbPath  string
		mermaid bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Index the coverage result into a traceability graph",
		Long: `graph measures coverage, loads the result into a traceability graph
(requirements linked to test cases by VERIFIED_BY edges) and prints its
statistics. With --db the graph is persisted in a Kuzu database directory;
with --mermaid a Mermaid flowchart of the graph is printed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := g.logger()

			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			res, err := pipeline.Measure(ctx, cfg, pipeline.WithLogger(logger))
			if err != nil {
				return err
			}

			store, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := graph.Index(ctx, store, res); err != nil {
				return fmt.Errorf("indexing graph: %w", err)
			}
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Requirements: %d (%d covered)\n", stats.RequirementCount, stats.CoveredCount)
			fmt.Fprintf(out, "Test cases:   %d (%d missing)\n", stats.TestCaseCount, stats.MissingCount)
			fmt.Fprintf(out, "Links:        %d\n", stats.LinkCount)

			if mermaid {
				diagram, err := graph.GenerateMermaid(ctx, store)
				if err != nil {
					return fmt.Errorf("generating mermaid: %w", err)
				}
				fmt.Fprintf(out, "\n```mermaid\n%s```\n", diagram)
			}
			if dbPath != "" {
				logger.Info().Str("db", dbPath).Msg("graph stored")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "persist the graph in this Kuzu database directory")
	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "print the graph as a Mermaid flowchart")
	return cmd
}
