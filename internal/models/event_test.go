package models

import (
	"testing"
	"time"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in   string
		want PlatformTag
		ok   bool
	}{
		{"STS", PlatformSTS, true},
		{"sts", PlatformSTS, true},
		{"  ifinish ", PlatformIFinish, true},
		{"MySamay", PlatformMySamay, true},
		{"nosuch", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePlatform(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePlatform(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEventYear(t *testing.T) {
	var ev CanonicalEvent
	if ev.Year() != 0 {
		t.Errorf("Year() = %d, want 0 for unknown date", ev.Year())
	}
	date := time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC)
	ev.RaceDate = &date
	if ev.Year() != 2023 {
		t.Errorf("Year() = %d, want 2023", ev.Year())
	}
}
