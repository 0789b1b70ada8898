package markdown

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headingParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// ExtractTitle returns the text of the first non-empty heading in body.
// Headings inside code blocks are ignored.
func ExtractTitle(body []byte) (string, bool) {
	doc := headingParser.Parse(text.NewReader(body))

	var title string
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		candidate := strings.TrimSpace(string(heading.Text(body)))
		if candidate == "" {
			return ast.WalkSkipChildren, nil
		}
		title = candidate
		return ast.WalkStop, nil
	})
	return title, title != ""
}

// TitleFromPath derives a title from a file name: every ".md" is dropped,
// underscores become spaces and every word is title-cased.
func TitleFromPath(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	base = strings.ReplaceAll(base, ".md", "")
	base = strings.ReplaceAll(base, "_", " ")
	return cases.Title(language.Und).String(strings.TrimSpace(base))
}
