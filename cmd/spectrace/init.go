package main

import (
	"fmt"
	"path/filepath"

	"github.com/dusk-indust/spectrace/internal/scaffold"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter spectrace.yaml and register the MCP server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving project root: %w", err)
			}

			results, err := scaffold.Init(abs, force)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Action == scaffold.ActionSkipped {
					fmt.Fprintf(out, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, r.Path))
					continue
				}
				fmt.Fprintf(out, "  %s %s\n", r.Action, dotRelative(abs, r.Path))
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "\nSetup complete. Edit spectrace.yaml, then run 'spectrace measure'.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
