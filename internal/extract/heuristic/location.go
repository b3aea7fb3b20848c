package heuristic

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

// locationSelectors run most specific first. Location is only ever read from
// these elements, never guessed from free text.
var locationSelectors = []string{
	".event-location .location",
	".event-location",
	".location-name",
	".venue-name",
	`[data-testid="event-location"]`,
	`[id="location"] .text-primary-text`,
	".location-label + *",
}

func locationFromSelectors(doc *goquery.Document) (string, bool) {
	for _, sel := range locationSelectors {
		text := dom.Text(doc.Find(sel).First())
		if text == "" {
			continue
		}
		// Attendee counters ("42 Going") share these containers.
		if !strings.Contains(text, "Going") && dom.WordCount(text) < 8 {
			return text, true
		}
	}
	return "", false
}
