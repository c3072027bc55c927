// Command spectrace measures how many written requirements are verified by
// automated tests.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dusk-indust/spectrace/internal/config"
	"github.com/dusk-indust/spectrace/internal/logging"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool

	stderr io.Writer
}

func (g *globalOptions) logger() *log.Logger {
	return logging.New(logging.Options{
		Verbose: g.Verbose,
		Quiet:   g.Quiet,
		Writer:  g.stderr,
	})
}

// loadConfig loads the --config file, or discovers one in the working
// directory.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	if g.ConfigPath != "" {
		return config.Load(g.ConfigPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return config.Discover(wd)
}

// configPath returns --config, or the first default configuration file
// found in the working directory, or "".
func (g *globalOptions) configPath() string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	for _, name := range config.DefaultNames {
		if abs, err := filepath.Abs(name); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOptions{stderr: stderr}

	cmd := &cobra.Command{
		Use:   "spectrace",
		Short: "Requirement to test traceability and coverage",
		Long: `spectrace extracts requirements from Markdown documents, links them to
test cases through markers in the documents, matches those links against
test reports (or a static scan of the test files) and reports which
requirements are covered.

Running spectrace without a subcommand is the same as "spectrace measure".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.ConfigPath, "config", "c", "", "configuration file (default: spectrace.yaml in the working directory)")
	pf.BoolVarP(&g.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&g.Quiet, "quiet", "q", false, "only log errors")

	measure := newMeasureCmd(g)
	cmd.Flags().AddFlagSet(measure.Flags())
	cmd.RunE = measure.RunE

	cmd.AddCommand(
		measure,
		newInitCmd(),
		newGraphCmd(g),
		newServeMCPCmd(g),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spectrace version %s\n", version)
		},
	}
}
