package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

const (
	presenterNameSelector = `div.text-lg.font-medium.text-primary-text, div[class*="font-medium"][class*="text-primary"]`
	organizerNameSelector = `div.text-lg.font-medium.text-primary-text, div[class*="font-medium"]`
)

var (
	labelTags = []string{"p", "div", "span", "h2", "h3", "h4"}

	hostKeywords = []string{"Hosted by", "Presented by"}

	genericNames = map[string]struct{}{
		"":                 {},
		"event series":     {},
		"the event series": {},
		"organizer":        {},
		"host":             {},
	}

	determiners = []string{"the ", "a ", "our ", "various ", "multiple "}
)

func presentedByStrategies() []strategy {
	return []strategy{
		{"presented-by-label", presentedByFromLabel},
		{"presented-by-regex", presentedByFromText},
	}
}

func organizerStrategies() []strategy {
	return []strategy{
		{"organizer-name", organizerFromNameElement},
		{"organizer-class", organizerFromClass},
		{"host-label", organizerFromLabel},
		{"host-regex", organizerFromText},
	}
}

// presentedByFromLabel reads the element right after a bare "Presented by"
// label. Link cards carry the name in a styled div.
func presentedByFromLabel(doc *goquery.Document) (string, bool) {
	label := dom.FirstElement(doc, func(s *goquery.Selection) bool {
		return dom.IsTag(s, labelTags...) && strings.ToLower(dom.Text(s)) == "presented by"
	})
	if label == nil {
		return "", false
	}
	next := label.Next()
	if next.Length() == 0 {
		return "", false
	}

	if _, hasHref := next.Attr("href"); dom.IsTag(next, "a") && hasHref {
		if name := dom.Text(next.Find(presenterNameSelector).First()); name != "" {
			return name, true
		}
		cleaned := stripPromo(dom.Text(next), promoSuffix)
		if cleaned != "" && dom.WordCount(cleaned) < 7 && strings.ToLower(cleaned) != "event series" {
			return cleaned, true
		}
		return "", false
	}

	direct := dom.Text(next)
	if direct != "" && dom.WordCount(direct) < 7 && !strings.HasPrefix(strings.ToLower(direct), "view") {
		return direct, true
	}
	return "", false
}

func presentedByFromText(doc *goquery.Document) (string, bool) {
	m := presentedByRe.FindStringSubmatch(dom.Flat(doc))
	if m == nil {
		return "", false
	}
	candidate := stripPromo(strings.TrimSpace(m[1]), promoSuffix)
	candidate = strings.TrimSpace(strings.TrimRight(candidate, ","))
	if n := dom.WordCount(candidate); n == 0 || n >= 8 {
		return "", false
	}
	if isGeneric(candidate) {
		return "", false
	}
	return candidate, true
}

func organizerFromNameElement(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find(`.event-organizer-name, [data-testid="event-host-name"]`).First())
	return text, text != ""
}

func organizerFromClass(doc *goquery.Document) (string, bool) {
	text := dom.Text(doc.Find(`.event-organizer, [class*="organizer"]`).First())
	lower := strings.ToLower(text)
	for _, prefix := range []string{"organizer", "hosted by", "presented by"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}
	return text, text != ""
}

// organizerFromLabel looks for a short "Hosted by" (then "Presented by")
// label and reads the element after it.
func organizerFromLabel(doc *goquery.Document) (string, bool) {
	for _, keyword := range hostKeywords {
		if name, ok := organizerAfterLabel(doc, keyword); ok {
			return stripPromo(name, labelPromoSuffix), true
		}
	}
	return "", false
}

func organizerAfterLabel(doc *goquery.Document, keyword string) (string, bool) {
	needle := strings.ToLower(keyword)
	limit := utf8.RuneCountInString(keyword) + 30
	label := dom.FirstElement(doc, func(s *goquery.Selection) bool {
		if !dom.IsTag(s, labelTags...) {
			return false
		}
		text := dom.Text(s)
		return strings.Contains(strings.ToLower(text), needle) && utf8.RuneCountInString(text) < limit
	})
	if label == nil {
		return "", false
	}
	sibling := label.Next()
	if sibling.Length() == 0 {
		return "", false
	}

	if link := sibling.Find("a").First(); link.Length() > 0 {
		if name := dom.Text(link.Find(organizerNameSelector).First()); name != "" {
			return name, true
		}
		name := stripPromo(dom.Text(link), labelPromoSuffix)
		return name, name != ""
	}

	direct := dom.Text(sibling)
	if direct != "" && dom.WordCount(direct) < 7 {
		return direct, true
	}
	return "", false
}

func organizerFromText(doc *goquery.Document) (string, bool) {
	flat := dom.Flat(doc)
	for _, re := range organizerPatterns {
		m := re.FindStringSubmatch(flat)
		if m == nil {
			continue
		}
		candidate := stripPromo(strings.TrimSpace(m[1]), promoSuffix)
		if i := strings.IndexByte(candidate, '\n'); i >= 0 {
			candidate = candidate[:i]
		}
		candidate = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(candidate), ","))
		if acceptableOrganizer(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func acceptableOrganizer(candidate string) bool {
	if n := dom.WordCount(candidate); n == 0 || n >= 8 {
		return false
	}
	if utf8.RuneCountInString(candidate) >= 70 || isGeneric(candidate) {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, d := range determiners {
		if strings.HasPrefix(lower, d) {
			return false
		}
	}
	return true
}

func isGeneric(name string) bool {
	_, ok := genericNames[strings.ToLower(name)]
	return ok
}

func stripPromo(s string, re *regexp.Regexp) string {
	return strings.TrimSpace(re.ReplaceAllString(s, ""))
}
