package ingest

import (
	"log"
	"strconv"
	"strings"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// envelopeKeys are the common wrapper keys APIs nest their event list
// under, tried in order when the response root is a mapping.
var envelopeKeys = []string{
	"events", "data", "results", "races", "items", "list", "eventList", "Events", "Data",
}

// defaultFieldKeys is the fallback-key table shared by every platform.
// Per-platform tables in the registry override individual fields; the
// canonical field name always appears first so normalizing an already
// canonical record is a no-op.
var defaultFieldKeys = FieldKeys{
	RaceName: []string{
		"race_name", "event_name", "name", "title",
		"EventName", "eventName", "RaceName", "event",
	},
	RaceDate: []string{
		"race_date", "date", "event_date", "start_date",
		"EventDate", "eventDate", "RaceDate", "scheduled_date",
	},
	City: []string{
		"city", "location", "venue", "place",
		"City", "Location", "Venue", "Place",
	},
	Distances: []string{
		"distances", "categories", "race_types",
		"Categories", "Distances", "race_categories",
	},
	ParticipantCount: []string{
		"participant_count", "participants", "total_participants",
		"count", "total_runners", "finishers", "ParticipantCount",
	},
	EventID: []string{
		"event_id", "id", "race_id", "EventId", "Id",
	},
}

// distanceAliases maps source spellings to the closed distance token set.
var distanceAliases = map[string]string{
	"5k": "5K", "5km": "5K", "5 km": "5K",
	"10k": "10K", "10km": "10K", "10 km": "10K",
	"21k": "21K", "21.1k": "21K", "21km": "21K", "hm": "21K",
	"half marathon": "21K", "half-marathon": "21K",
	"42k": "42K", "42.2k": "42K", "42km": "42K", "fm": "42K",
	"full marathon": "42K", "full-marathon": "42K", "marathon": "42K",
}

// Normalizer maps raw source records into canonical events using the
// fallback-key table of one platform.
type Normalizer struct {
	Platform models.PlatformTag
	Keys     FieldKeys
}

// NewNormalizer builds a normalizer for a platform, merging its
// registry-configured key overrides over the shared defaults.
func NewNormalizer(platform models.PlatformTag, overrides FieldKeys) *Normalizer {
	keys := defaultFieldKeys
	if len(overrides.RaceName) > 0 {
		keys.RaceName = overrides.RaceName
	}
	if len(overrides.RaceDate) > 0 {
		keys.RaceDate = overrides.RaceDate
	}
	if len(overrides.City) > 0 {
		keys.City = overrides.City
	}
	if len(overrides.Distances) > 0 {
		keys.Distances = overrides.Distances
	}
	if len(overrides.ParticipantCount) > 0 {
		keys.ParticipantCount = overrides.ParticipantCount
	}
	if len(overrides.EventID) > 0 {
		keys.EventID = overrides.EventID
	}
	return &Normalizer{Platform: platform, Keys: keys}
}

// NormalizeResponse flattens any API response shape into canonical
// events. It handles a list at the root, a list nested under a common
// envelope key, and a single event mapping. Anything else is a
// SchemaError for this platform.
func (n *Normalizer) NormalizeResponse(raw any, sourceURL string) ([]models.CanonicalEvent, error) {
	items, err := n.ExtractItems(raw)
	if err != nil {
		return nil, err
	}

	events := make([]models.CanonicalEvent, 0, len(items))
	for _, item := range items {
		if !n.isEvent(item) {
			continue
		}
		ev, err := n.Normalize(item, sourceURL)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ExtractItems pulls the list of event records out of a raw payload.
func (n *Normalizer) ExtractItems(raw any) ([]RawRecord, error) {
	switch t := raw.(type) {
	case []any:
		items := make([]RawRecord, 0, len(t))
		for _, el := range t {
			if m, ok := el.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items, nil
	case map[string]any:
		for _, key := range envelopeKeys {
			if nested, ok := t[key].([]any); ok {
				return n.ExtractItems(nested)
			}
		}
		// The mapping itself may be a single event.
		if n.isEvent(t) {
			return []RawRecord{t}, nil
		}
		return nil, &SchemaError{Platform: n.Platform, Detail: "mapping has no event list and is not an event"}
	default:
		return nil, &SchemaError{Platform: n.Platform, Detail: "payload is neither a list nor a mapping"}
	}
}

// isEvent reports whether a record carries at least a race name.
func (n *Normalizer) isEvent(item RawRecord) bool {
	return n.firstValue(item, n.Keys.RaceName) != ""
}

// Normalize maps one raw record to a CanonicalEvent. The output depends
// only on the fallback-key order, never on map iteration order, so
// normalizing the same record twice yields identical output.
func (n *Normalizer) Normalize(item RawRecord, sourceURL string) (models.CanonicalEvent, error) {
	ev := models.CanonicalEvent{
		TimingCompany: n.Platform,
		SourceURL:     sourceURL,
	}

	ev.RaceName = n.firstValue(item, n.Keys.RaceName)
	if ev.RaceName == "" {
		return ev, &MalformedRecordError{Platform: n.Platform, Field: "race_name"}
	}
	if ev.TimingCompany == "" {
		return ev, &MalformedRecordError{Platform: n.Platform, Field: "timing_company"}
	}
	if ev.SourceURL == "" {
		return ev, &MalformedRecordError{Platform: n.Platform, Field: "source_url"}
	}

	if rawDate := n.firstValue(item, n.Keys.RaceDate); rawDate != "" {
		if t, err := ParseRaceDate(rawDate); err == nil {
			ev.RaceDate = &t
		} else {
			log.Printf("[%s] unparseable race date %q for %q, leaving unset", n.Platform, rawDate, ev.RaceName)
		}
	}

	ev.City = n.firstValue(item, n.Keys.City)
	ev.Distances = parseDistances(n.firstRaw(item, n.Keys.Distances))
	ev.ParticipantCount = parseParticipantCount(n.firstValue(item, n.Keys.ParticipantCount))
	ev.EventID = n.firstValue(item, n.Keys.EventID)

	return ev, nil
}

// firstRaw returns the first non-nil, non-empty value for an ordered
// fallback-key list.
func (n *Normalizer) firstRaw(item RawRecord, keys []string) any {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func (n *Normalizer) firstValue(item RawRecord, keys []string) string {
	return stringify(n.firstRaw(item, keys))
}

// parseDistances splits a distance field on the common separators and
// maps known aliases to the standard token set. Unrecognized tokens are
// uppercased and retained rather than dropped.
func parseDistances(raw any) []string {
	var tokens []string
	switch t := raw.(type) {
	case nil:
		return nil
	case []any:
		for _, el := range t {
			tokens = append(tokens, stringify(el))
		}
	case []string:
		tokens = append(tokens, t...)
	default:
		s := stringify(raw)
		s = strings.ReplaceAll(s, "/", ",")
		s = strings.ReplaceAll(s, "|", ",")
		tokens = strings.Split(s, ",")
	}

	var out []string
	for _, tok := range tokens {
		tok = cleanText(tok)
		if tok == "" {
			continue
		}
		if std, ok := distanceAliases[strings.ToLower(tok)]; ok {
			out = appendUnique(out, std)
		} else {
			out = appendUnique(out, strings.ToUpper(tok))
		}
	}
	return out
}

// parseParticipantCount strips everything but digits before conversion.
// No digits means unknown, never zero.
func parseParticipantCount(raw string) *int {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return nil
	}
	count, err := strconv.Atoi(digits.String())
	if err != nil || count < 0 {
		return nil
	}
	return &count
}
