package jsonld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seyi-sanmi/atlas/internal/event"
)

func page(blocks ...string) string {
	out := "<html><head>"
	for _, b := range blocks {
		out += `<script type="application/ld+json">` + b + `</script>`
	}
	return out + "</head><body></body></html>"
}

func TestExtractSingleEventObject(t *testing.T) {
	t.Parallel()

	html := page(`{
		"@context": "https://schema.org",
		"@type": "Event",
		"name": "Founders",
		"startDate": "2025-06-01T18:00:00Z",
		"endDate": "2025-06-01T20:00:00Z",
		"description": "Investor Day 2025 at the University of Cambridge.",
		"location": {"@type": "Place", "name": "Cambridge Union"},
		"organizer": [{"@type": "Organization", "name": ""}, {"name": "Founders Society"}]
	}`)

	fields, ok := New(nil).Extract(html)
	require.True(t, ok)
	assert.Equal(t, event.Fields{
		event.FieldTitle:       "Founders",
		event.FieldStart:       "2025-06-01T18:00:00Z",
		event.FieldEnd:         "2025-06-01T20:00:00Z",
		event.FieldDescription: "Investor Day 2025 at the University of Cambridge.",
		event.FieldLocation:    "Cambridge Union",
		event.FieldOrganizer:   "Founders Society",
	}, fields)
}

func TestExtractArrayPicksFirstEvent(t *testing.T) {
	t.Parallel()

	html := page(`[
		{"@type": "BreadcrumbList", "name": "crumbs"},
		{"@type": "Event", "name": "First", "location": "Online", "organizer": "Acme"},
		{"@type": "Event", "name": "Second"}
	]`)

	fields, ok := New(nil).Extract(html)
	require.True(t, ok)
	assert.Equal(t, "First", fields[event.FieldTitle])
	assert.Equal(t, "Online", fields[event.FieldLocation])
	assert.Equal(t, "Acme", fields[event.FieldOrganizer])
}

func TestExtractPolymorphicShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		location  string
		organizer string
		wantLoc   string
		wantOrg   string
	}{
		{name: "strings", location: `"Hall"`, organizer: `"Host"`, wantLoc: "Hall", wantOrg: "Host"},
		{name: "objects", location: `{"name":"Hall"}`, organizer: `{"name":"Host"}`, wantLoc: "Hall", wantOrg: "Host"},
		{name: "list location is absent", location: `[{"name":"Hall"}]`, organizer: `[{"name":"Host"}]`, wantOrg: "Host"},
		{name: "numbers are absent", location: `42`, organizer: `7`},
		{name: "empty organizer list", location: `{}`, organizer: `[]`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			html := page(`{"@type":"Event","name":"x","location":` + tt.location + `,"organizer":` + tt.organizer + `}`)
			fields, ok := New(nil).Extract(html)
			require.True(t, ok)
			assert.Equal(t, tt.wantLoc, fields[event.FieldLocation])
			assert.Equal(t, tt.wantOrg, fields[event.FieldOrganizer])
		})
	}
}

func TestExtractCoercesScalars(t *testing.T) {
	t.Parallel()

	fields, ok := New(nil).Extract(page(`{"@type":["Event","SocialEvent"],"name":2025,"description":true}`))
	require.True(t, ok)
	assert.Equal(t, "2025", fields[event.FieldTitle])
	assert.Equal(t, "true", fields[event.FieldDescription])
}

func TestExtractMalformedIsLoggedAndSkipped(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	ex := New(zap.New(core))

	_, ok := ex.Extract(page(`{"@type": "Event", "name": `))
	require.False(t, ok)
	require.Equal(t, 1, logs.FilterMessage("json-ld: malformed block").Len())

	fields, ok := ex.Extract(page(`{broken`, `{"@type":"Event","name":"Recovered"}`))
	require.True(t, ok)
	assert.Equal(t, "Recovered", fields[event.FieldTitle])
}

func TestExtractWithoutEventBlock(t *testing.T) {
	t.Parallel()

	_, ok := New(nil).Extract(page(`{"@type":"Organization","name":"Acme"}`))
	require.False(t, ok)

	_, ok = New(nil).Extract(`<html><body><h1>No metadata</h1></body></html>`)
	require.False(t, ok)
}
