package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seyi-sanmi/atlas/internal/event"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

var today = fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}

func TestNormalizeFromStructuredTimestamps(t *testing.T) {
	t.Parallel()

	out := New(today, nil).Normalize(event.Fields{
		event.FieldStart: "2025-06-01T18:00:00Z",
		event.FieldEnd:   "2025-06-01T20:00:00Z",
		event.FieldTime:  "06:00 - 08:00",
	})

	assert.Equal(t, "2025-06-01", out[event.FieldDate])
	assert.Equal(t, "18:00 - 20:00", out[event.FieldTime])
}

func TestNormalizeKeepsHeuristicDate(t *testing.T) {
	t.Parallel()

	out := New(today, nil).Normalize(event.Fields{
		event.FieldStart: "2025-06-01T23:30:00-07:00",
		event.FieldDate:  "2025-06-02",
	})

	assert.Equal(t, "2025-06-02", out[event.FieldDate])
	assert.False(t, out.Has(event.FieldTime), "start without end leaves time alone")
}

func TestNormalizeUsesWrittenOffset(t *testing.T) {
	t.Parallel()

	out := New(today, nil).Normalize(event.Fields{
		event.FieldStart: "2025-06-01T23:30:00-07:00",
		event.FieldEnd:   "2025-06-02T01:00:00-07:00",
	})

	assert.Equal(t, "2025-06-01", out[event.FieldDate])
	assert.Equal(t, "23:30 - 01:00", out[event.FieldTime])
}

func TestNormalizeMalformedIsAllOrNothing(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	n := New(today, zap.New(core))

	out := n.Normalize(event.Fields{
		event.FieldStart: "2025-06-01T18:00:00Z",
		event.FieldEnd:   "sometime later",
		event.FieldTime:  "06:00 - 08:00",
	})

	assert.Equal(t, "06:00 - 08:00", out[event.FieldTime])
	assert.Equal(t, "2026-03-14", out[event.FieldDate], "a bad end must not leak the start date")
	assert.Equal(t, 1, logs.Len())
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	out := New(today, nil).Normalize(event.Fields{})
	assert.Equal(t, "2026-03-14", out[event.FieldDate])
	assert.False(t, out.Has(event.FieldTime))
}

func TestFinalizeAlwaysShapesRecord(t *testing.T) {
	t.Parallel()

	rec := New(today, nil).Finalize(event.Fields{event.FieldLocation: "Hall"}, nil)

	assert.Equal(t, event.UntitledTitle, rec.Title)
	assert.Equal(t, "2026-03-14", rec.Date)
	assert.Equal(t, "", rec.Time)
	assert.NotNil(t, rec.Links)
	assert.NotNil(t, rec.Categories)
	assert.Empty(t, rec.Categories)
	require.NotNil(t, rec.Location)
	assert.Equal(t, "Hall", *rec.Location)
	assert.Nil(t, rec.Organizer)
}

func TestParseISO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"2025-06-01T18:00:00Z", "2025-06-01T18:00:00Z"},
		{"2025-06-01T18:00:00.000+01:00", "2025-06-01T18:00:00+01:00"},
		{"2025-06-01T18:00", "2025-06-01T18:00:00Z"},
		{"2025-06-01 18:00:00", "2025-06-01T18:00:00Z"},
		{"2025-06-01", "2025-06-01T00:00:00Z"},
	}
	for _, tt := range tests {
		got, err := ParseISO(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.Format(time.RFC3339), tt.in)
	}

	_, err := ParseISO("June 1st")
	require.ErrorIs(t, err, ErrUnparseable)
}
