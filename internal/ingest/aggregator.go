package ingest

import (
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// Aggregate concatenates per-platform streams into one slice, in the
// order the streams are given. Records inside each stream keep their
// source order, so two runs over the same inputs produce the same
// sequence no matter how the fetches interleaved.
func Aggregate(streams []SourceStream) []models.CanonicalEvent {
	total := 0
	for _, s := range streams {
		total += len(s.Events)
	}
	combined := make([]models.CanonicalEvent, 0, total)
	for _, s := range streams {
		combined = append(combined, s.Events...)
	}
	return combined
}
