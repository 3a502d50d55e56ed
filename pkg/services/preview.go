package services

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Previewer renders markdown to HTML for the editor's preview pane.
type Previewer struct {
	md goldmark.Markdown
}

func NewPreviewer() *Previewer {
	return &Previewer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render drops front matter before converting. Raw HTML in the source is
// not rendered (goldmark's default).
func (p *Previewer) Render(content string) (string, error) {
	_, body, err := ParseFrontMatter([]byte(content))
	if err != nil {
		body = content
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
