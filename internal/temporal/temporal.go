// Package temporal turns whatever start/end/date/time evidence was found into
// the canonical date and time-range shape of an event record.
package temporal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/event"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ErrUnparseable is returned for timestamps no supported layout accepts.
var ErrUnparseable = errors.New("unparseable timestamp")

// isoLayouts are tried in order. Offsets are optional; a value without one
// keeps its wall clock.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	dateLayout,
}

// Clock supplies the current time for the date default.
type Clock interface {
	Now() time.Time
}

// Normalizer finalizes date and time fields.
type Normalizer struct {
	clock  Clock
	logger *zap.Logger
}

// New returns a Normalizer. A nil logger discards diagnostics.
func New(clock Clock, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{clock: clock, logger: logger}
}

// Normalize derives date and time from start/end when they parse, then
// fills the date default. The input is not modified. A malformed start or
// end leaves the prior date and time untouched.
func (n *Normalizer) Normalize(fields event.Fields) event.Fields {
	out := fields.Clone()

	if start, ok := out.Get(event.FieldStart); ok {
		end, hasEnd := out.Get(event.FieldEnd)
		date, clock, err := deriveSchedule(start, end, hasEnd)
		if err != nil {
			n.logger.Warn("could not parse start/end datetime",
				zap.String("start", start),
				zap.String("end", end),
				zap.Error(err),
			)
		} else {
			if !out.Has(event.FieldDate) {
				out.Set(event.FieldDate, date)
			}
			if clock != "" {
				out.Set(event.FieldTime, clock)
			}
		}
	}

	if !out.Has(event.FieldDate) {
		out.Set(event.FieldDate, n.clock.Now().Format(dateLayout))
	}
	return out
}

// Finalize normalizes fields and builds the always-shaped record: the
// title sentinel, an empty time and an empty category list stand in for
// anything not found.
func (n *Normalizer) Finalize(fields event.Fields, links []string) event.Record {
	out := n.Normalize(fields)
	if !out.Has(event.FieldTitle) {
		out.Set(event.FieldTitle, event.UntitledTitle)
	}
	return event.NewRecord(out, links)
}

// deriveSchedule returns the start's date and, when an end is present, the
// "HH:MM - HH:MM" range. It fails as a whole if either timestamp is bad.
func deriveSchedule(start, end string, hasEnd bool) (date, clock string, err error) {
	startAt, err := ParseISO(start)
	if err != nil {
		return "", "", fmt.Errorf("start: %w", err)
	}
	if !hasEnd {
		return startAt.Format(dateLayout), "", nil
	}
	endAt, err := ParseISO(end)
	if err != nil {
		return "", "", fmt.Errorf("end: %w", err)
	}
	return startAt.Format(dateLayout), startAt.Format(clockLayout) + " - " + endAt.Format(clockLayout), nil
}

// ParseISO parses an ISO-8601 timestamp, accepting a trailing "Z" as UTC.
// The returned time keeps the offset written in value.
func ParseISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, "Z") || strings.HasSuffix(value, "z") {
		value = value[:len(value)-1] + "+00:00"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, value)
}
