package export

import (
	"fmt"
	"html"
	"io"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/iksnae/skillswap/internal"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`

// HTMLExporter renders the Markdown transcript as a standalone HTML page
type HTMLExporter struct{}

// Export exports a transcript to HTML. Raw HTML in messages is dropped and the
// rendered body is sanitized.
func (e *HTMLExporter) Export(t *internal.Transcript, w io.Writer) error {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})

	body := markdown.ToHTML(renderMarkdown(t), p, renderer)
	body = bluemonday.UGCPolicy().SanitizeBytes(body)

	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString(t.Title()), body)
	return err
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
