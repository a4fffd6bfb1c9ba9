package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// ReadEventsCSV loads an event CSV written by this package, so a dedup
// pass can run over a previous ingestion's output without re-fetching.
func ReadEventsCSV(path string) ([]models.CanonicalEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range eventColumns {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	var events []models.CanonicalEvent
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A parse error mid-file would otherwise silently truncate
			// the registry a dedup pass runs over.
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		ev := models.CanonicalEvent{
			RaceName:      row[col["race_name"]],
			City:          row[col["city"]],
			EventID:       row[col["event_id"]],
			TimingCompany: models.PlatformTag(row[col["timing_company"]]),
			SourceURL:     row[col["source_url"]],
		}
		if raw := row[col["race_date"]]; raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				ev.RaceDate = &t
			}
		}
		if raw := row[col["distances"]]; raw != "" {
			ev.Distances = strings.Split(raw, "|")
		}
		if raw := row[col["participant_count"]]; raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				ev.ParticipantCount = &n
			}
		}
		events = append(events, ev)
	}
	return events, nil
}
