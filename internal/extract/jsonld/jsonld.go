// Package jsonld extracts the embedded schema.org Event block from an event
// page. It is the highest-trust source the scraper has.
package jsonld

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/event"
	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

const eventType = "Event"

// Extractor reads JSON-LD metadata blocks.
type Extractor struct {
	logger *zap.Logger
}

// New returns an Extractor. A nil logger discards diagnostics.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract returns the fields of the first Event entity found in the page's
// JSON-LD blocks. The boolean is false when no usable block exists;
// malformed blocks are logged and skipped.
func (e *Extractor) Extract(raw string) (event.Fields, bool) {
	doc, err := dom.Parse(raw)
	if err != nil {
		e.logger.Warn("json-ld: html parse failed", zap.Error(err))
		return nil, false
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument is Extract over an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) (event.Fields, bool) {
	var (
		fields event.Fields
		found  bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		body := strings.TrimSpace(s.Text())
		if body == "" {
			return true
		}
		var payload any
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			e.logger.Warn("json-ld: malformed block", zap.Int("index", i), zap.Error(err))
			return true
		}
		entity, ok := selectEvent(payload)
		if !ok {
			return true
		}
		fields, found = fromEntity(entity), true
		return false
	})
	return fields, found
}

// selectEvent accepts a single Event object or the first Event in an array.
func selectEvent(payload any) (map[string]any, bool) {
	switch v := payload.(type) {
	case map[string]any:
		if isEventType(v["@type"]) {
			return v, true
		}
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok && isEventType(obj["@type"]) {
				return obj, true
			}
		}
	}
	return nil, false
}

func isEventType(value any) bool {
	switch v := value.(type) {
	case string:
		return v == eventType
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == eventType {
				return true
			}
		}
	}
	return false
}

func fromEntity(m map[string]any) event.Fields {
	fields := event.Fields{}
	fields.Set(event.FieldTitle, scalar(m["name"]))
	fields.Set(event.FieldStart, scalar(m["startDate"]))
	fields.Set(event.FieldEnd, scalar(m["endDate"]))
	fields.Set(event.FieldDescription, scalar(m["description"]))
	fields.Set(event.FieldLocation, resolveLocation(decodeNamed(m["location"])))
	fields.Set(event.FieldOrganizer, resolveOrganizer(decodeNamed(m["organizer"])))
	return fields
}

// scalar renders JSON primitives as text; containers and null are absent.
func scalar(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case nil, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
