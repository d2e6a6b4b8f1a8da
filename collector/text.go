// Package collector holds helpers shared by the source collectors.
package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText renders an HTML fragment as plain text with collapsed
// whitespace. Script and style elements are dropped. Input that is not HTML
// passes through with only whitespace normalized.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	doc.Find("script, style, noscript").Remove()

	doc.Find("p, li, h1, h2, h3, h4, h5, h6, blockquote, pre, br, div, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return collapseSpace(doc.Text())
}

// collapseSpace trims every line, folds runs of spaces and drops blank lines.
func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
