package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Specification Coverage Report</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 72rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ddd; padding: .4rem .6rem; text-align: left; vertical-align: top; }
code { background: #f4f4f4; padding: 0 .2rem; }
</style>
</head>
<body data-run-id="%s">
`

const htmlTail = "</body>\n</html>\n"

// htmlMarkdown converts the Markdown report. Raw HTML is allowed so the
// <br/> separators in table cells survive.
var htmlMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// HTML writes the Markdown report converted to a standalone HTML page.
func HTML(w io.Writer, res *trace.CoverageResult, meta Meta) error {
	var body bytes.Buffer
	if err := htmlMarkdown.Convert([]byte(markdown(res, meta)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if _, err := fmt.Fprintf(w, htmlHead, meta.RunID); err != nil {
		return err
	}
	if _, err := body.WriteTo(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, htmlTail)
	return err
}
