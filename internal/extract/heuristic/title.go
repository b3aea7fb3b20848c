package heuristic

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

var attributionPrefixes = []string{"Hosted by", "Presented by"}

func (e *Extractor) titleStrategies() []strategy {
	return []strategy{
		{"private-event-heading", titleAfterPrivateLabel},
		{"large-text", titleFromLargeText},
		{"heading", titleFromHeading},
		{"page-title", e.titleFromPageTitle},
	}
}

// titleAfterPrivateLabel handles pages that render a "Private Event" badge
// in front of the real heading.
func titleAfterPrivateLabel(doc *goquery.Document) (string, bool) {
	label := dom.FindTextNode(doc, privateEventRe)
	if label == nil || label.Parent == nil {
		return "", false
	}
	h1 := doc.FindNodes(label.Parent).NextAllFiltered("h1").First()
	text := dom.Text(h1)
	return text, text != ""
}

func titleFromLargeText(doc *goquery.Document) (string, bool) {
	var title string
	doc.Find(".text-3xl, .text-2xl, .text-xl, .text-lg").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := dom.Text(s)
		n := utf8.RuneCountInString(text)
		if n > 5 && n < 100 && !hasAnyPrefix(text, attributionPrefixes) {
			title = text
			return false
		}
		return true
	})
	return title, title != ""
}

func titleFromHeading(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find("h1.text-3xl, h1.text-2xl, h1, .event-title, .title").First())
	return text, text != ""
}

func (e *Extractor) titleFromPageTitle(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find("title").First())
	text = strings.TrimSpace(e.pageTitleRe.ReplaceAllString(text, ""))
	return text, text != ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
