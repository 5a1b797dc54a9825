// Package htmltext turns HTML-bearing cells into plain text before
// preprocessing. Posts scraped from social platforms often carry markup
// that would otherwise survive as tokens like "<br>".
package htmltext

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/plnorm/pkg/plnorm/dataset"
)

// Strip returns the text content of s. Text nodes are separated by a single
// space; script and style bodies are dropped. Input that fails to parse is
// returned as is.
func Strip(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var parts []string
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.Join(parts, " ")
}

// StripColumns rewrites columns of ds with their text content. Absent cells
// stay absent.
func StripColumns(ctx context.Context, ds dataset.Dataset, columns []string) error {
	for _, col := range columns {
		cells, err := ds.Column(ctx, col)
		if err != nil {
			return err
		}
		for i, c := range cells {
			if c.Valid {
				cells[i].Text = Strip(c.Text)
			}
		}
		if err := ds.SetColumn(ctx, col, cells); err != nil {
			return err
		}
	}
	return nil
}
