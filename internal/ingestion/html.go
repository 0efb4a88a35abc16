package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resumeContentSelectors are tried in order; the first match is taken as the resume body.
var resumeContentSelectors = []string{
	"main",
	"article",
	"#resume",
	".resume",
	"#content",
	".content",
}

// htmlNoise is removed before extraction.
const htmlNoise = "nav, footer, script, style, noscript, template, iframe, svg, form, button"

// htmlBlocks get a trailing line break so paragraphs and list items stay on their own lines.
const htmlBlocks = "p, div, section, li, tr, h1, h2, h3, h4, h5, h6, br, dt, dd, blockquote, pre"

// extractHTML returns the visible text of a saved web resume.
// If no content selector matches, it falls back to the body element.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(htmlNoise).Remove()
	doc.Find(htmlBlocks).AppendHtml("\n")

	var content *goquery.Selection
	for _, selector := range resumeContentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	return collapseBlankLines(content.Text()), nil
}

// collapseBlankLines trims every line and drops the empty ones left behind by markup indentation.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
