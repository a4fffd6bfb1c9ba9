package ingest

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

const optionsPage = `<html><body>
<select name="event">
  <option value="">Select Event</option>
  <option value="101">Chennai Marathon 2023</option>
  <option value="102">Vizag Navy Half Marathon</option>
  <option value="103">123</option>
  <option value="101">Chennai Marathon 2023</option>
</select>
</body></html>`

func htmlDoc(url, html string) *FetchedDocument {
	return &FetchedDocument{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        io.NopCloser(bytes.NewReader([]byte(html))),
		FetchedAt:   time.Now(),
	}
}

func TestExtractOptionEvents(t *testing.T) {
	norm := NewNormalizer(models.PlatformTimingIndia, FieldKeys{})
	seen := make(map[string]bool)

	events, err := extractOptionEvents(norm, htmlDoc("https://timingindia.com/results", optionsPage), seen)
	if err != nil {
		t.Fatalf("extractOptionEvents() error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2 (placeholder, numeric and duplicate options skipped)", len(events))
	}
	if events[0].RaceName != "Chennai Marathon 2023" {
		t.Errorf("RaceName = %q", events[0].RaceName)
	}
	if events[0].EventID != "101" {
		t.Errorf("EventID = %q, want option value", events[0].EventID)
	}
	if events[1].RaceName != "Vizag Navy Half Marathon" {
		t.Errorf("RaceName = %q", events[1].RaceName)
	}
	if events[0].SourceURL != "https://timingindia.com/results" {
		t.Errorf("SourceURL = %q", events[0].SourceURL)
	}
}

func TestExtractOptionEventsDedupesAcrossPages(t *testing.T) {
	norm := NewNormalizer(models.PlatformTimingIndia, FieldKeys{})
	seen := make(map[string]bool)

	first, err := extractOptionEvents(norm, htmlDoc("https://timingindia.com/a", optionsPage), seen)
	if err != nil {
		t.Fatalf("first page error = %v", err)
	}
	second, err := extractOptionEvents(norm, htmlDoc("https://timingindia.com/b", optionsPage), seen)
	if err != nil {
		t.Fatalf("second page error = %v", err)
	}
	if len(first) != 2 || len(second) != 0 {
		t.Errorf("got %d then %d events, want 2 then 0", len(first), len(second))
	}
}

func TestPlausibleRaceName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Chennai Marathon 2023", true},
		{"Select Event", false},
		{"Choose an event", false},
		{"All Events", false},
		{"123456", false},
		{"5K", false},
	}
	for _, tt := range tests {
		if got := plausibleRaceName(tt.name); got != tt.want {
			t.Errorf("plausibleRaceName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
