// Package reconcile merges structured and heuristic candidates into one set
// of event fields and repairs titles that are known to come out wrong.
package reconcile

import (
	"github.com/seyi-sanmi/atlas/internal/event"
)

// Source names where a resolved field came from.
type Source string

const (
	SourceStructured Source = "structured"
	SourceHeuristic  Source = "heuristic"
)

// overridable fields take a heuristic value even when structured metadata
// already has one. Structured titles and descriptions are often templated.
var overridable = map[event.Field]struct{}{
	event.FieldTitle:       {},
	event.FieldDescription: {},
	event.FieldPresentedBy: {},
	event.FieldDate:        {},
	event.FieldTime:        {},
}

// Overridable reports whether a heuristic value beats a structured one for f.
func Overridable(f event.Field) bool {
	_, ok := overridable[f]
	return ok
}

// Merge starts from structured and lets heuristic fill gaps, or replace the
// overridable fields. Neither input is modified. Merge(m, m) == m.
func Merge(structured, heuristic event.Fields) event.Fields {
	merged := structured.Clone()
	for field, value := range heuristic {
		if value == "" {
			continue
		}
		if !merged.Has(field) || Overridable(field) {
			merged[field] = value
		}
	}
	return merged
}

// Provenance reports, for every field of merged, which input supplied it.
// A value both sources agree on counts as structured.
func Provenance(structured, merged event.Fields) map[event.Field]Source {
	out := make(map[event.Field]Source, len(merged))
	for field, value := range merged {
		if sv, ok := structured.Get(field); ok && sv == value {
			out[field] = SourceStructured
			continue
		}
		out[field] = SourceHeuristic
	}
	return out
}
