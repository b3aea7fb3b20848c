// Package detector decides when a fetched event page needs the rendering
// fallback.
package detector

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

const (
	defaultBodyLengthThreshold = 2048
	defaultMinVisibleText      = 200
)

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	// BodyLengthThreshold bounds the size under which a script-heavy page is
	// treated as a loader stub.
	BodyLengthThreshold int
	// MinVisibleText is the visible character count below which a page
	// carrying an SPA mount point is considered an unrendered shell.
	MinVisibleText int
}

// NewHeuristic creates a new detector. Zero values pick defaults.
func NewHeuristic(threshold, minVisibleText int) *Heuristic {
	if threshold == 0 {
		threshold = defaultBodyLengthThreshold
	}
	if minVisibleText == 0 {
		minVisibleText = defaultMinVisibleText
	}
	return &Heuristic{BodyLengthThreshold: threshold, MinVisibleText: minVisibleText}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
}

// ShouldPromote reports whether the fetched page looks like a JavaScript
// shell. Server-rendered pages of SPA frameworks carry the same mount points
// as empty shells, so a marker only counts when little text is visible.
func (h *Heuristic) ShouldPromote(resp crawler.FetchResponse) bool {
	if resp.StatusCode != 200 {
		return false
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	if !hasSPAMarker(body) {
		return false
	}
	return visibleTextLength(body) < h.MinVisibleText
}

func hasSPAMarker(body []byte) bool {
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func visibleTextLength(body []byte) int {
	doc, err := dom.Parse(string(body))
	if err != nil {
		return 0
	}
	return utf8.RuneCountInString(dom.Text(doc.Find("body")))
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Unterminated tag: the rest is script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		next := total
		if relativeEnd != -1 {
			next = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += next - start
		searchPos = next
	}

	return scriptCoverage > 0 && scriptCoverage*100/total >= 25
}
