package models

import (
	"strings"
	"time"
)

// PlatformTag identifies the timing platform a record originated from.
type PlatformTag string

const (
	PlatformSTS         PlatformTag = "STS"
	PlatformIFinish     PlatformTag = "iFinish"
	PlatformMySamay     PlatformTag = "MySamay"
	PlatformTimingIndia PlatformTag = "TimingIndia"
	PlatformMyRaceIndia PlatformTag = "MyRaceIndia"
	PlatformRaceResult  PlatformTag = "RaceResult"
)

// KnownPlatforms lists every supported platform tag.
var KnownPlatforms = []PlatformTag{
	PlatformSTS,
	PlatformIFinish,
	PlatformMySamay,
	PlatformTimingIndia,
	PlatformMyRaceIndia,
	PlatformRaceResult,
}

// ParsePlatform resolves a case-insensitive platform name to its tag.
func ParsePlatform(s string) (PlatformTag, bool) {
	for _, p := range KnownPlatforms {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// CanonicalEvent is the registry's unified representation of one race
// record. RaceName, TimingCompany and SourceURL are always non-empty;
// every other field is independently optional. Events are never mutated
// after normalization, only re-grouped by the deduplicator.
type CanonicalEvent struct {
	RaceName         string      `json:"race_name"`
	RaceDate         *time.Time  `json:"race_date"`
	City             string      `json:"city"`
	Distances        []string    `json:"distances"`
	ParticipantCount *int        `json:"participant_count"`
	EventID          string      `json:"event_id"`
	TimingCompany    PlatformTag `json:"timing_company"`
	SourceURL        string      `json:"source_url"`
}

// Year returns the race year, or 0 when the date is unknown.
func (e CanonicalEvent) Year() int {
	if e.RaceDate == nil {
		return 0
	}
	return e.RaceDate.Year()
}

// Tier is the deduplicator's confidence in a group: exact matches are
// certain, probable matches came through fuzzy comparison, and
// manual-review groups need human adjudication.
type Tier string

const (
	TierExact        Tier = "exact"
	TierProbable     Tier = "probable"
	TierManualReview Tier = "manual-review"
)

// DuplicateGroup is a cluster of events believed to describe the same
// real-world race. Members keep their original ingestion order; the
// representative is always the first-seen member. Groups are immutable
// once a dedup pass finalizes them.
type DuplicateGroup struct {
	Members []CanonicalEvent `json:"members"`
	Indexes []int            `json:"indexes"`
	Tier    Tier             `json:"tier"`
}

// Representative returns the first-seen member of the group.
func (g DuplicateGroup) Representative() CanonicalEvent {
	return g.Members[0]
}
