package ingest

import (
	"errors"
	"reflect"
	"testing"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

func TestNormalizeFallbackKeys(t *testing.T) {
	tests := []struct {
		name     string
		record   RawRecord
		wantName string
		wantCity string
	}{
		{
			name:     "canonical keys pass through",
			record:   RawRecord{"race_name": "Mumbai Marathon", "city": "Mumbai"},
			wantName: "Mumbai Marathon",
			wantCity: "Mumbai",
		},
		{
			name:     "event_name fallback",
			record:   RawRecord{"event_name": "Delhi Half Marathon", "location": "Delhi"},
			wantName: "Delhi Half Marathon",
			wantCity: "Delhi",
		},
		{
			name:     "PascalCase fallback",
			record:   RawRecord{"EventName": "Hyderabad 10K", "Venue": "Hyderabad"},
			wantName: "Hyderabad 10K",
			wantCity: "Hyderabad",
		},
		{
			name: "earlier key wins over later key",
			record: RawRecord{
				"race_name": "Kolkata 25K",
				"name":      "Wrong Name",
				"city":      "Kolkata",
			},
			wantName: "Kolkata 25K",
			wantCity: "Kolkata",
		},
		{
			name: "empty value falls through to next key",
			record: RawRecord{
				"race_name": "   ",
				"name":      "Pune International Marathon",
				"city":      "Pune",
			},
			wantName: "Pune International Marathon",
			wantCity: "Pune",
		},
	}

	norm := NewNormalizer(models.PlatformSTS, FieldKeys{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := norm.Normalize(tt.record, "https://sportstimingsolutions.in/events")
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if ev.RaceName != tt.wantName {
				t.Errorf("RaceName = %q, want %q", ev.RaceName, tt.wantName)
			}
			if ev.City != tt.wantCity {
				t.Errorf("City = %q, want %q", ev.City, tt.wantCity)
			}
			if ev.TimingCompany != models.PlatformSTS {
				t.Errorf("TimingCompany = %q, want %q", ev.TimingCompany, models.PlatformSTS)
			}
		})
	}
}

func TestNormalizeFieldOverrides(t *testing.T) {
	norm := NewNormalizer(models.PlatformIFinish, FieldKeys{
		RaceName: []string{"EventName", "race_name"},
	})

	record := RawRecord{
		"EventName": "iFinish Title",
		"race_name": "Default Title",
		"city":      "Chennai",
	}
	ev, err := norm.Normalize(record, "https://ifinish.in/api/events")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if ev.RaceName != "iFinish Title" {
		t.Errorf("RaceName = %q, want override key to win", ev.RaceName)
	}
	if ev.City != "Chennai" {
		t.Errorf("City = %q, non-overridden fields should keep defaults", ev.City)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	norm := NewNormalizer(models.PlatformSTS, FieldKeys{})
	record := RawRecord{
		"race_name":         "Bengaluru Marathon",
		"race_date":         "2023-10-15",
		"city":              "Bengaluru",
		"distances":         "10K,21K",
		"participant_count": "5000",
		"event_id":          "blr-2023",
	}

	first, err := norm.Normalize(record, "https://example.in/events")
	if err != nil {
		t.Fatalf("first Normalize() error = %v", err)
	}

	// Re-normalizing the canonical form of the record must be a no-op.
	again := RawRecord{
		"race_name":         first.RaceName,
		"race_date":         first.RaceDate.Format("2006-01-02"),
		"city":              first.City,
		"distances":         first.Distances,
		"participant_count": *first.ParticipantCount,
		"event_id":          first.EventID,
	}
	second, err := norm.Normalize(again, first.SourceURL)
	if err != nil {
		t.Fatalf("second Normalize() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestNormalizeMissingRaceName(t *testing.T) {
	norm := NewNormalizer(models.PlatformSTS, FieldKeys{})
	_, err := norm.Normalize(RawRecord{"city": "Mumbai"}, "https://example.in")
	var malformed *MalformedRecordError
	if !errors.As(err, &malformed) {
		t.Fatalf("Normalize() error = %v, want MalformedRecordError", err)
	}
	if malformed.Field != "race_name" {
		t.Errorf("Field = %q, want race_name", malformed.Field)
	}
}

func TestNormalizeUnparseableDateLeftUnset(t *testing.T) {
	norm := NewNormalizer(models.PlatformSTS, FieldKeys{})
	ev, err := norm.Normalize(RawRecord{
		"race_name": "Goa River Marathon",
		"race_date": "sometime next winter",
	}, "https://example.in")
	if err != nil {
		t.Fatalf("Normalize() error = %v, unparseable date must not fail the record", err)
	}
	if ev.RaceDate != nil {
		t.Errorf("RaceDate = %v, want nil", ev.RaceDate)
	}
}

func TestExtractItems(t *testing.T) {
	norm := NewNormalizer(models.PlatformSTS, FieldKeys{})

	tests := []struct {
		name      string
		raw       any
		wantCount int
		wantErr   bool
	}{
		{
			name:      "root list",
			raw:       []any{map[string]any{"race_name": "A"}, map[string]any{"race_name": "B"}},
			wantCount: 2,
		},
		{
			name:      "events envelope",
			raw:       map[string]any{"events": []any{map[string]any{"race_name": "A"}}},
			wantCount: 1,
		},
		{
			name:      "data envelope",
			raw:       map[string]any{"data": []any{map[string]any{"name": "A"}}},
			wantCount: 1,
		},
		{
			name:      "single event mapping",
			raw:       map[string]any{"race_name": "Solo Event"},
			wantCount: 1,
		},
		{
			name:    "mapping with neither list nor name",
			raw:     map[string]any{"status": "ok"},
			wantErr: true,
		},
		{
			name:    "scalar payload",
			raw:     "not json we understand",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := norm.ExtractItems(tt.raw)
			if tt.wantErr {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("ExtractItems() error = %v, want SchemaError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractItems() error = %v", err)
			}
			if len(items) != tt.wantCount {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantCount)
			}
		})
	}
}

func TestParseDistances(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"comma separated aliases", "5K, 10K, Half Marathon", []string{"5K", "10K", "21K"}},
		{"slash separated", "21K/42K", []string{"21K", "42K"}},
		{"pipe separated", "5km|10km", []string{"5K", "10K"}},
		{"list input", []any{"Marathon", "10k"}, []string{"42K", "10K"}},
		{"unknown token retained uppercased", "80K Ultra", []string{"80K ULTRA"}},
		{"duplicates collapsed", "10K, 10km", []string{"10K"}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDistances(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDistances(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseParticipantCount(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"5000", intPtr(5000)},
		{"12,345", intPtr(12345)},
		{"5000 runners", intPtr(5000)},
		{"", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		got := parseParticipantCount(tt.raw)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("parseParticipantCount(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		if got != nil && *got != *tt.want {
			t.Errorf("parseParticipantCount(%q) = %d, want %d", tt.raw, *got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }
