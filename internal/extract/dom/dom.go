// Package dom holds the goquery helpers shared by the extractors: parsing,
// text flattening, and the few tree walks goquery does not offer directly.
package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// skipped elements never contribute visible text.
var skipped = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// Parse builds a goquery document from raw HTML.
func Parse(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Text returns the visible text of sel with runs of whitespace collapsed.
func Text(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		walkText(n, func(s string) {
			b.WriteString(s)
		})
	}
	return Collapse(b.String())
}

// Lines returns each non-empty trimmed text node of sel joined by sep.
func Lines(sel *goquery.Selection, sep string) string {
	return strings.Join(Strings(sel), sep)
}

// Strings returns the non-empty trimmed text nodes of sel in document order.
func Strings(sel *goquery.Selection) []string {
	if sel == nil {
		return nil
	}
	var out []string
	for _, n := range sel.Nodes {
		walkText(n, func(s string) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		})
	}
	return out
}

// Flat joins every raw text node of the document with a single space,
// keeping embedded newlines. Regex fallbacks scan this.
func Flat(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var parts []string
	for _, n := range doc.Nodes {
		walkText(n, func(s string) {
			parts = append(parts, s)
		})
	}
	return strings.Join(parts, " ")
}

// Collapse trims s and folds internal whitespace runs to one space.
func Collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// FindTextNode returns the first visible text node matching re.
func FindTextNode(doc *goquery.Document, re *regexp.Regexp) *html.Node {
	if doc == nil {
		return nil
	}
	var found *html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if _, skip := skipped[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode && re.MatchString(n.Data) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range doc.Nodes {
		visit(n)
	}
	return found
}

// FirstElement returns the first element, in document order, for which match
// returns true.
func FirstElement(doc *goquery.Document, match func(*goquery.Selection) bool) *goquery.Selection {
	var hit *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if match(s) {
			hit = s
			return false
		}
		return true
	})
	return hit
}

// IsTag reports whether the single-node selection is one of tags.
func IsTag(sel *goquery.Selection, tags ...string) bool {
	if sel == nil || sel.Length() == 0 {
		return false
	}
	name := goquery.NodeName(sel)
	for _, t := range tags {
		if name == t {
			return true
		}
	}
	return false
}

func walkText(n *html.Node, emit func(string)) {
	switch n.Type {
	case html.TextNode:
		emit(n.Data)
		return
	case html.ElementNode:
		if _, skip := skipped[n.Data]; skip {
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, emit)
	}
}
