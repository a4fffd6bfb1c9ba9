package ingest

import (
	"testing"
	"time"
)

func TestParseRaceDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"iso date", "2023-10-15", "2023-10-15", false},
		{"iso timestamp with zone", "2023-10-15T06:30:00+05:30", "2023-10-15", false},
		{"iso timestamp without zone", "2024-01-21T00:00:00", "2024-01-21", false},
		{"indian day first", "15/10/2023", "2023-10-15", false},
		{"long month", "October 15, 2023", "2023-10-15", false},
		{"short month", "Oct 15, 2023", "2023-10-15", false},
		{"surrounding whitespace", "  2023-10-15  ", "2023-10-15", false},
		{"empty", "", "", true},
		{"prose", "next Sunday", "", true},
		{"us month first is not guessed", "10-15-2023", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRaceDate(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRaceDate(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRaceDate(%q) error = %v", tt.raw, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseRaceDate(%q) = %s, want %s", tt.raw, got.Format("2006-01-02"), tt.want)
			}
			if got.Location() != time.UTC || got.Hour() != 0 {
				t.Errorf("ParseRaceDate(%q) = %v, want midnight UTC", tt.raw, got)
			}
		})
	}
}
