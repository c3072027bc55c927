// Package extract finds requirement declarations and their explicit test
// links in Markdown documents.
package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/dusk-indust/spectrace/internal/logging"
	"github.com/dusk-indust/spectrace/internal/paths"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSources bounds how many sources are scanned at once.
const maxConcurrentSources = 4

// Extractor turns requirement sources into requirements. It is safe for
// concurrent use.
type Extractor struct {
	logger    *log.Logger
	tokenizer *tokenizer
}

// New creates an Extractor. A nil logger discards diagnostics.
func New(logger *log.Logger) *Extractor {
	return &Extractor{
		logger:    logging.OrDiscard(logger),
		tokenizer: newTokenizer(),
	}
}

// compiledSource is a RequirementSource with its patterns compiled.
type compiledSource struct {
	trace.RequirementSource
	idRe   *regexp.Regexp
	linkRe *regexp.Regexp
}

func compile(src trace.RequirementSource) (compiledSource, error) {
	cs := compiledSource{RequirementSource: src}
	var err error
	if src.IDPattern != "" {
		if cs.idRe, err = regexp.Compile(src.IDPattern); err != nil {
			return cs, fmt.Errorf("source %s: idPattern: %w", src.ID, err)
		}
	}
	if src.LinkMarkerPattern != "" {
		if cs.linkRe, err = regexp.Compile(src.LinkMarkerPattern); err != nil {
			return cs, fmt.Errorf("source %s: linkMarkerPattern: %w", src.ID, err)
		}
	}
	return cs, nil
}

// Extract scans every source and returns their requirements in source
// order, then document match order, then heading order.
//
// Glob failures and unreadable documents are logged and skipped. Only an
// uncompilable pattern (a *trace.ConfigurationError) or context
// cancellation is returned.
func (e *Extractor) Extract(ctx context.Context, sources []trace.RequirementSource, baseDir string) ([]trace.Requirement, error) {
	compiled := make([]compiledSource, len(sources))
	for i, src := range sources {
		cs, err := compile(src)
		if err != nil {
			return nil, &trace.ConfigurationError{Err: err}
		}
		compiled[i] = cs
	}

	perSource := make([][]trace.Requirement, len(compiled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSources)

	for i, src := range compiled {
		g.Go(func() error {
			reqs, err := e.extractSource(gctx, src, baseDir)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn().Err(err).Str("source", src.ID).Msg("skipping requirement source")
				return nil
			}
			perSource[i] = reqs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]trace.Requirement, 0)
	for _, reqs := range perSource {
		out = append(out, reqs...)
	}
	return out, nil
}

// extractSource enumerates and parses one source's documents.
func (e *Extractor) extractSource(ctx context.Context, src compiledSource, baseDir string) ([]trace.Requirement, error) {
	pattern := paths.Resolve(baseDir, src.Path)
	files, err := paths.Glob(pattern)
	if err != nil {
		return nil, &trace.SourceEnumerationError{SourceID: src.ID, Pattern: pattern, Err: err}
	}
	e.logger.Debug().Str("source", src.ID).Str("pattern", pattern).Int("files", len(files)).Msg("enumerated documents")

	var out []trace.Requirement
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(file)
		if err != nil {
			rerr := &trace.FileReadError{Path: file, Err: err}
			e.logger.Warn().Err(rerr).Str("source", src.ID).Msg("skipping document")
			continue
		}
		reqs := e.extractDocument(file, content, src, baseDir)
		e.logger.Debug().Str("source", src.ID).Str("file", file).Int("requirements", len(reqs)).Msg("parsed document")
		out = append(out, reqs...)
	}
	return out, nil
}

// extractDocument returns the requirements declared in one document.
func (e *Extractor) extractDocument(filePath string, content []byte, src compiledSource, baseDir string) []trace.Requirement {
	if src.idRe == nil {
		return nil
	}

	type declared struct {
		req    trace.Requirement
		offset int
	}
	var found []declared
	for _, h := range e.tokenizer.Headings(content) {
		id, title, ok := matchHeading(src.idRe, h)
		if !ok {
			continue
		}
		found = append(found, declared{
			req: trace.Requirement{
				ID:          id,
				Title:       title,
				Description: "",
				FilePath:    filePath,
				Source:      src.ID,
				LinkedTests: []trace.TestIdentifier{},
			},
			offset: h.Offset,
		})
	}
	if len(found) == 0 {
		return nil
	}

	if src.linkRe != nil {
		markers := scanMarkers(src.linkRe, string(content), baseDir)
		switch src.LinkScope {
		case trace.LinkScopeSection:
			for _, m := range markers {
				owner := -1
				for i := range found {
					if found[i].offset <= m.offset {
						owner = i
					}
				}
				if owner < 0 {
					e.logger.Debug().Str("file", filePath).Str("test", m.id.Key()).Msg("link marker precedes every requirement heading")
					continue
				}
				found[owner].req.LinkedTests = append(found[owner].req.LinkedTests, m.id)
			}
		default:
			for i := range found {
				linked := make([]trace.TestIdentifier, 0, len(markers))
				for _, m := range markers {
					linked = append(linked, m.id)
				}
				found[i].req.LinkedTests = linked
			}
		}
	}

	out := make([]trace.Requirement, len(found))
	for i, d := range found {
		out[i] = d.req
	}
	return out
}

// matchHeading applies the id pattern to the heading's bare text, then to
// its canonical "## text" form. Group 1 is the id, group 2 the title.
func matchHeading(re *regexp.Regexp, h heading) (id, title string, ok bool) {
	for _, candidate := range []string{h.Text, h.atxLine()} {
		m := re.FindStringSubmatch(candidate)
		if len(m) >= 3 {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

type marker struct {
	id     trace.TestIdentifier
	offset int
}

// scanMarkers finds every link marker in the raw document text. Group 1 is
// the test file (resolved against baseDir), group 2 the verbatim case name.
func scanMarkers(re *regexp.Regexp, content, baseDir string) []marker {
	var out []marker
	for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
		if len(loc) < 6 || loc[2] < 0 || loc[4] < 0 {
			continue
		}
		out = append(out, marker{
			id: trace.TestIdentifier{
				FilePath: paths.Resolve(baseDir, content[loc[2]:loc[3]]),
				CaseName: content[loc[4]:loc[5]],
			},
			offset: loc[0],
		})
	}
	return out
}
