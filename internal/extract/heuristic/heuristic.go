// Package heuristic scans page structure and visible text for event fields
// when structured metadata is missing or too generic. Every field is an
// ordered list of strategies; the first one that finds a value wins.
package heuristic

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/event"
	"github.com/seyi-sanmi/atlas/internal/extract/dom"
)

// DefaultSiteSuffix is the branding appended to page titles on the target site.
const DefaultSiteSuffix = "Lu.ma"

// Options tune site-specific behaviour.
type Options struct {
	// SiteSuffix is stripped from "<title> | <SiteSuffix>" page titles.
	SiteSuffix string
	// ConvertMeridiem turns "6:00pm" into "18:00" instead of keeping the
	// clock digits as written.
	ConvertMeridiem bool
}

// strategy is a single best-effort attempt at one field.
type strategy struct {
	name string
	run  func(*goquery.Document) (string, bool)
}

// Extractor runs the per-field strategy lists.
type Extractor struct {
	opts        Options
	logger      *zap.Logger
	pageTitleRe *regexp.Regexp
	fields      []fieldStrategies
}

type fieldStrategies struct {
	field      event.Field
	strategies []strategy
}

// New builds an Extractor. A nil logger discards diagnostics.
func New(opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SiteSuffix == "" {
		opts.SiteSuffix = DefaultSiteSuffix
	}
	e := &Extractor{
		opts:        opts,
		logger:      logger,
		pageTitleRe: regexp.MustCompile(`\s*[|]\s*` + regexp.QuoteMeta(opts.SiteSuffix) + `.*$`),
	}
	e.fields = []fieldStrategies{
		{event.FieldTitle, e.titleStrategies()},
		{event.FieldStart, []strategy{{"time-datetime-attr", startFromTimeElement}}},
		{event.FieldDescription, descriptionStrategies()},
		{event.FieldLocation, []strategy{{"location-selectors", locationFromSelectors}}},
		{event.FieldOrganizer, organizerStrategies()},
		{event.FieldPresentedBy, presentedByStrategies()},
		{event.FieldDate, []strategy{{"date-element", dateFromElement}}},
		{event.FieldTime, []strategy{{"time-range-element", e.timeFromElement}}},
	}
	return e
}

// Extract parses raw HTML and runs every field's strategies. Fields nothing
// could find are simply absent from the result.
func (e *Extractor) Extract(raw string) event.Fields {
	doc, err := dom.Parse(raw)
	if err != nil {
		e.logger.Warn("heuristic: html parse failed", zap.Error(err))
		return event.Fields{}
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument is Extract over an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document) event.Fields {
	fields := event.Fields{}
	for _, fs := range e.fields {
		if value, ok := e.first(fs.field, doc, fs.strategies); ok {
			fields.Set(fs.field, value)
		}
	}
	return fields
}

func (e *Extractor) first(field event.Field, doc *goquery.Document, strategies []strategy) (string, bool) {
	for _, s := range strategies {
		value, ok := e.try(field, s, doc)
		if ok && value != "" {
			e.logger.Debug("heuristic hit",
				zap.String("field", string(field)),
				zap.String("strategy", s.name),
			)
			return value, true
		}
	}
	return "", false
}

// try runs one strategy and turns a panic into a miss.
func (e *Extractor) try(field event.Field, s strategy, doc *goquery.Document) (value string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("heuristic strategy failed",
				zap.String("field", string(field)),
				zap.String("strategy", s.name),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
			value, ok = "", false
		}
	}()
	return s.run(doc)
}
