package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/spectrace/internal/config"
	"github.com/dusk-indust/spectrace/internal/coverage"
	"github.com/dusk-indust/spectrace/internal/metrics"
	"github.com/dusk-indust/spectrace/internal/pipeline"
	"github.com/dusk-indust/spectrace/internal/report"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

type measureOptions struct {
	JSON        bool
	SummaryOnly bool
	Format      string
	Output      string
	Policy      string
	FailUnder   float64
	MetricsFile string
	Watch       bool
}

func newMeasureCmd(g *globalOptions) *cobra.Command {
	var o measureOptions

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Compute requirement coverage and write a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMeasure(cmd.Context(), g, &o, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.JSON, "json", false, "write the JSON report (same as --format json)")
	f.BoolVar(&o.SummaryOnly, "summary-only", false, "write only the summary line")
	f.StringVar(&o.Format, "format", string(report.FormatMarkdown), "report format: md, text, json or html")
	f.StringVarP(&o.Output, "output", "o", "", "write the report to a file instead of stdout (bare names go to outputDir)")
	f.StringVar(&o.Policy, "policy", "", "override coveragePolicy: presence or passed")
	f.Float64Var(&o.FailUnder, "fail-under", 0, "exit with an error when coverage is below this percentage")
	f.StringVar(&o.MetricsFile, "metrics-file", "", "also write Prometheus metrics in textfile format")
	f.BoolVar(&o.Watch, "watch", false, "re-run whenever a requirement, test or report file changes")
	return cmd
}

// format resolves --json and --summary-only against --format.
func (o *measureOptions) format() (report.Format, error) {
	switch {
	case o.JSON:
		return report.FormatJSON, nil
	case o.SummaryOnly:
		return report.FormatText, nil
	}
	return report.ParseFormat(o.Format)
}

func (o *measureOptions) policy() (coverage.Policy, error) {
	switch o.Policy {
	case "", config.PolicyPresence, config.PolicyPassed:
		return coverage.Policy(o.Policy), nil
	}
	return "", fmt.Errorf("unknown policy %q (want presence or passed)", o.Policy)
}

func runMeasure(ctx context.Context, g *globalOptions, o *measureOptions, stdout io.Writer) error {
	format, err := o.format()
	if err != nil {
		return err
	}
	policy, err := o.policy()
	if err != nil {
		return err
	}
	logger := g.logger()

	if !o.Watch {
		_, err := measureOnce(ctx, g, o, format, policy, logger, stdout)
		return err
	}

	cfg, err := measureOnce(ctx, g, o, format, policy, logger, stdout)
	if err != nil {
		return err
	}
	return watch(ctx, cfg, o.writtenFiles(cfg), logger, func() {
		if _, err := measureOnce(ctx, g, o, format, policy, logger, stdout); err != nil {
			logger.Error().Err(err).Msg("measure failed")
		}
	})
}

// measureOnce runs one measurement, writes every requested output and
// applies --fail-under. It returns the loaded configuration so watch mode
// knows what to watch.
func measureOnce(
	ctx context.Context,
	g *globalOptions,
	o *measureOptions,
	format report.Format,
	policy coverage.Policy,
	logger *log.Logger,
	stdout io.Writer,
) (*config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	res, err := pipeline.Measure(ctx, cfg, pipeline.WithLogger(logger), pipeline.WithPolicy(policy))
	if err != nil {
		return nil, err
	}

	if err := writeReport(cfg, o, format, res, stdout); err != nil {
		return nil, err
	}
	if o.Output != "" {
		logger.Info().Str("path", outputPath(cfg, o.Output)).Str("format", string(format)).Msg("report written")
	}

	if o.MetricsFile != "" {
		if err := metrics.WriteTextfile(o.MetricsFile, res); err != nil {
			return nil, err
		}
		logger.Debug().Str("path", o.MetricsFile).Msg("metrics written")
	}

	if o.FailUnder > 0 && res.Summary.CoveragePercentage < o.FailUnder {
		err := fmt.Errorf("coverage %.2f%% is below --fail-under %.2f%%", res.Summary.CoveragePercentage, o.FailUnder)
		if o.Watch {
			logger.Warn().Err(err).Msg("coverage threshold not met")
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

func writeReport(cfg *config.Config, o *measureOptions, format report.Format, res *trace.CoverageResult, stdout io.Writer) error {
	meta := report.NewMeta(cfg.Path)

	if o.Output == "" {
		if format == report.FormatText && report.IsTerminal(stdout) {
			return report.Terminal(stdout, res, report.DefaultTheme())
		}
		return report.Render(stdout, format, res, meta)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, res, meta); err != nil {
		return err
	}
	path := outputPath(cfg, o.Output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// writtenFiles lists the files a run writes, so watch mode can ignore them.
func (o *measureOptions) writtenFiles(cfg *config.Config) []string {
	var files []string
	if o.Output != "" {
		files = append(files, outputPath(cfg, o.Output))
	}
	if o.MetricsFile != "" {
		files = append(files, o.MetricsFile)
	}
	return files
}

// outputPath places bare file names in the configured outputDir; anything
// with a directory component is used as given.
func outputPath(cfg *config.Config, name string) string {
	if filepath.Base(name) == name {
		return cfg.OutputPath(name)
	}
	return name
}
