// Package collect gathers test case results from framework JSON reports
// or, when no report is available, from the test sources themselves.
package collect

import (
	"context"
	"os"

	"github.com/dusk-indust/spectrace/internal/logging"
	"github.com/dusk-indust/spectrace/internal/paths"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentSources = 4

// Collector turns test sources into test results. It is safe for
// concurrent use.
type Collector struct {
	logger *log.Logger
	regex  Scanner
	ast    Scanner
}

// Option configures a Collector.
type Option func(*Collector)

// WithASTScanner replaces the scanner used for sources with scanner "ast".
func WithASTScanner(s Scanner) Option {
	return func(c *Collector) { c.ast = s }
}

// New creates a Collector. A nil logger discards diagnostics.
func New(logger *log.Logger, opts ...Option) *Collector {
	c := &Collector{
		logger: logging.OrDiscard(logger),
		regex:  RegexScanner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ast == nil {
		c.ast = NewTreeSitterScanner()
	}
	return c
}

// Collect returns the results of every source, concatenated in source
// order. Unreadable reports and files are logged and skipped; only context
// cancellation is returned as an error.
func (c *Collector) Collect(ctx context.Context, sources []trace.TestSource, baseDir string) ([]trace.TestResult, error) {
	perSource := make([][]trace.TestResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSources)

	for i, src := range sources {
		g.Go(func() error {
			results, err := c.collectSource(gctx, src, baseDir)
			if err != nil {
				return err
			}
			perSource[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]trace.TestResult, 0)
	for _, results := range perSource {
		out = append(out, results...)
	}
	return out, nil
}

func (c *Collector) collectSource(ctx context.Context, src trace.TestSource, baseDir string) ([]trace.TestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if src.ReportPath != "" {
		results, err := parseReport(src, baseDir)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", src.ID).Msg("ignoring test report")
		} else {
			c.logger.Debug().Str("source", src.ID).Int("results", len(results)).Msg("parsed test report")
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	if src.Path == "" {
		return nil, nil
	}
	return c.scanSource(ctx, src, baseDir)
}

// scanSource statically extracts pending cases from the source's test files.
func (c *Collector) scanSource(ctx context.Context, src trace.TestSource, baseDir string) ([]trace.TestResult, error) {
	pattern := paths.Resolve(baseDir, src.Path)
	files, err := paths.Glob(pattern)
	if err != nil {
		eerr := &trace.SourceEnumerationError{SourceID: src.ID, Pattern: pattern, Err: err}
		c.logger.Warn().Err(eerr).Str("source", src.ID).Msg("skipping test source")
		return nil, nil
	}

	scanner := c.regex
	if src.Scanner == trace.ScannerAST {
		scanner = c.ast
	}

	var out []trace.TestResult
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(file)
		if err != nil {
			rerr := &trace.FileReadError{Path: file, Err: err}
			c.logger.Warn().Err(rerr).Str("source", src.ID).Msg("skipping test file")
			continue
		}

		cases, err := scanner.Scan(file, content)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", file).Msg("falling back to regex scan")
			cases, _ = c.regex.Scan(file, content)
		}
		for _, tc := range cases {
			out = append(out, trace.TestResult{
				TestIdentifier: trace.TestIdentifier{FilePath: file, CaseName: tc.Name},
				Status:         tc.Status,
				Source:         src.ID,
			})
		}
	}
	c.logger.Debug().Str("source", src.ID).Int("files", len(files)).Int("results", len(out)).Msg("scanned test sources")
	return out, nil
}
