// Package event defines the event record produced by the scraper and the
// per-source candidate fields that feed it.
package event

// Field names one reconcilable attribute of an event.
type Field string

// Reconcilable fields. Values double as the JSON keys of Record.
const (
	FieldTitle       Field = "title"
	FieldStart       Field = "start"
	FieldEnd         Field = "end"
	FieldDescription Field = "description"
	FieldLocation    Field = "location"
	FieldOrganizer   Field = "organizer"
	FieldPresentedBy Field = "presented_by"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
)

// AllFields lists every reconcilable field in output order.
var AllFields = []Field{
	FieldTitle,
	FieldStart,
	FieldEnd,
	FieldDescription,
	FieldLocation,
	FieldOrganizer,
	FieldPresentedBy,
	FieldDate,
	FieldTime,
}

// UntitledTitle is substituted when no title could be resolved.
const UntitledTitle = "Untitled Event"

// Fields holds candidate values for one source. A missing key means the
// source did not find the field; empty strings are never stored.
type Fields map[Field]string

// Get returns the value for f and whether it is present.
func (f Fields) Get(field Field) (string, bool) {
	v, ok := f[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Set stores value for field, deleting the key when value is empty.
func (f Fields) Set(field Field, value string) {
	if value == "" {
		delete(f, field)
		return
	}
	f[field] = value
}

// Has reports whether field is present.
func (f Fields) Has(field Field) bool {
	_, ok := f.Get(field)
	return ok
}

// Clone returns a shallow copy; a nil receiver yields an empty map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Record is the canonical event emitted by the scraper. Every key is always
// serialized; optional attributes serialize as null when absent.
type Record struct {
	Title       string   `json:"title"`
	Start       *string  `json:"start"`
	End         *string  `json:"end"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Organizer   *string  `json:"organizer"`
	PresentedBy *string  `json:"presented_by"`
	Links       []string `json:"links"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Categories  []string `json:"categories"`
}

// NewRecord builds a Record from finalized fields. Title, date and time are
// copied verbatim, so callers apply sentinels before calling.
func NewRecord(fields Fields, links []string) Record {
	return Record{
		Title:       fields[FieldTitle],
		Start:       optional(fields, FieldStart),
		End:         optional(fields, FieldEnd),
		Description: optional(fields, FieldDescription),
		Location:    optional(fields, FieldLocation),
		Organizer:   optional(fields, FieldOrganizer),
		PresentedBy: optional(fields, FieldPresentedBy),
		Links:       append([]string{}, links...),
		Date:        fields[FieldDate],
		Time:        fields[FieldTime],
		Categories:  []string{},
	}
}

// Fields converts the record back into candidate form, dropping the
// Untitled sentinel. Merging a finalized record's fields with themselves
// yields them unchanged.
func (r Record) Fields() Fields {
	out := Fields{}
	if r.Title != UntitledTitle {
		out.Set(FieldTitle, r.Title)
	}
	out.Set(FieldStart, deref(r.Start))
	out.Set(FieldEnd, deref(r.End))
	out.Set(FieldDescription, deref(r.Description))
	out.Set(FieldLocation, deref(r.Location))
	out.Set(FieldOrganizer, deref(r.Organizer))
	out.Set(FieldPresentedBy, deref(r.PresentedBy))
	out.Set(FieldDate, r.Date)
	out.Set(FieldTime, r.Time)
	return out
}

func optional(fields Fields, field Field) *string {
	v, ok := fields.Get(field)
	if !ok {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

