package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://lu.ma/e1", "lu.ma"},
		{"standard https", "https://Lu.ma/e1", "lu.ma"},
		{"no scheme", "lu.ma/e1", "lu.ma"},
		{"just host", "lu.ma", "lu.ma"},
		{"host with port", "lu.ma:8080", "lu.ma"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	if scrapesTotal == nil || fetchAttemptsTotal == nil || fieldSourceTotal == nil ||
		titleCorrectionsTotal == nil || httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveHelpers(t *testing.T) {
	before := testutil.ToFloat64(scrapesTotalFor("lu.ma", "success"))
	ObserveScrape("https://lu.ma/e1", "success")
	if got := testutil.ToFloat64(scrapesTotalFor("lu.ma", "success")); got != before+1 {
		t.Errorf("expected scrapes_total to grow by 1, got %f -> %f", before, got)
	}

	ObserveTitleCorrection("private-event")
	if got := testutil.ToFloat64(titleCorrectionsTotal.WithLabelValues("private-event")); got < 1 {
		t.Errorf("expected title correction to be counted, got %f", got)
	}

	ObserveFieldSource("title", "heuristic")
	if got := testutil.ToFloat64(fieldSourceTotal.WithLabelValues("title", "heuristic")); got < 1 {
		t.Errorf("expected field source to be counted, got %f", got)
	}
}

func scrapesTotalFor(site, status string) prometheus.Counter {
	Init()
	return scrapesTotal.WithLabelValues(site, status)
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://lu.ma", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
