package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/seyi-sanmi/atlas/internal/event"
)

func strPtr(s string) *string { return &s }

func TestSaveEventUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewEventStoreWithPool(mock, "events")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	scrape := event.Scrape{
		ID:         "0190a5c4-0000-7000-8000-000000000001",
		URL:        "https://lu.ma/e1",
		ScrapedAt:  now,
		ArchiveURI: "gs://pages/lu.ma/abc.html",
		Record: event.Record{
			Title:      "Rust Night",
			Start:      strPtr("2025-06-01T18:00:00Z"),
			Location:   strPtr("Cambridge Union"),
			Links:      []string{"https://lu.ma/a"},
			Date:       "2025-06-01",
			Time:       "18:00 - 20:00",
			Categories: []string{},
		},
	}

	mock.ExpectExec("INSERT INTO events").
		WithArgs(
			scrape.ID,
			scrape.URL,
			"Rust Night",
			scrape.Record.Start,
			(*string)(nil),
			(*string)(nil),
			scrape.Record.Location,
			(*string)(nil),
			(*string)(nil),
			[]byte(`["https://lu.ma/a"]`),
			"2025-06-01",
			"18:00 - 20:00",
			[]byte(`[]`),
			strPtr("gs://pages/lu.ma/abc.html"),
			false,
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveEvent(context.Background(), scrape))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEventWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewEventStoreWithPool(mock, "")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectExec("ON CONFLICT \\(source_url\\) DO UPDATE").WillReturnError(boom)

	err = store.SaveEvent(context.Background(), event.Scrape{ID: "id", URL: "https://lu.ma/e1"})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEventValidation(t *testing.T) {
	t.Parallel()

	var nilStore *EventStore
	require.Error(t, nilStore.SaveEvent(context.Background(), event.Scrape{ID: "id", URL: "u"}))

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	store, err := NewEventStoreWithPool(mock, "events")
	require.NoError(t, err)
	require.Error(t, store.SaveEvent(context.Background(), event.Scrape{URL: "https://lu.ma/e1"}))
}

func TestTableNameValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEventStoreWithPool(nil, "events")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewEventStoreWithPool(mock, "events; DROP TABLE x")
	require.Error(t, err)

	_, err = NewEventStore(context.Background(), Config{})
	require.Error(t, err)
}
