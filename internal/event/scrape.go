package event

import "time"

// Scrape wraps a Record with the provenance of the run that produced it.
// It is the payload handed to sinks.
type Scrape struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	ScrapedAt  time.Time `json:"scraped_at"`
	ArchiveURI string    `json:"archive_uri,omitempty"`
	Rendered   bool      `json:"rendered"`
	Record     Record    `json:"event"`
}

// Attributes are the message attributes used when publishing a Scrape.
func (s Scrape) Attributes() map[string]string {
	return map[string]string{
		"scrape_id":  s.ID,
		"source_url": s.URL,
		"event_date": s.Record.Date,
	}
}
