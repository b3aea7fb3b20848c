package heuristic

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

func descriptionStrategies() []strategy {
	return []strategy{
		{"description-container", descriptionFromContainer},
		{"about-event-siblings", descriptionAfterAboutLabel},
		{"main-content", descriptionFromMainContent},
	}
}

func descriptionFromContainer(doc *goquery.Document) (string, bool) {
	text := dom.Lines(doc.Find(`#about-event, .description, [class*="description"]`).First(), "\n")
	return text, text != ""
}

// descriptionAfterAboutLabel collects the blocks that follow an "About Event"
// heading up to the next heading.
func descriptionAfterAboutLabel(doc *goquery.Document) (string, bool) {
	label := dom.FindTextNode(doc, aboutEventRe)
	if label == nil || label.Parent == nil {
		return "", false
	}
	var parts []string
	doc.FindNodes(label.Parent).NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if dom.IsTag(s, "h1", "h2", "h3", "h4") {
			return false
		}
		if text := dom.Text(s); text != "" {
			parts = append(parts, text)
		}
		return true
	})
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n\n"), true
}

// descriptionFromMainContent is the last resort: every line of the main
// content area longer than three characters.
func descriptionFromMainContent(doc *goquery.Document) (string, bool) {
	var lines []string
	for _, node := range dom.Strings(doc.Find(`main, [class*="content"], [id*="content"]`).First()) {
		for _, line := range strings.Split(node, "\n") {
			if line = strings.TrimSpace(line); utf8.RuneCountInString(line) > 3 {
				lines = append(lines, line)
			}
		}
	}
	text := strings.Join(lines, "\n")
	return text, text != ""
}
