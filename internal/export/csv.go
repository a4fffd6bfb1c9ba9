package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// eventColumns is the fixed column order of every event CSV.
var eventColumns = []string{
	"race_name", "race_date", "city", "distances",
	"participant_count", "event_id", "timing_company", "source_url",
}

// dedupedColumns extends the event columns with group metadata. The
// deduped CSV carries one row per group, described by its
// representative member.
var dedupedColumns = append(append([]string{}, eventColumns...), "member_count", "tier")

// WriteSourceCSV writes one platform's events to <dir>/<platform>_events.csv.
func WriteSourceCSV(dir string, stream models.PlatformTag, events []models.CanonicalEvent) (string, error) {
	name := fmt.Sprintf("%s_events.csv", strings.ToLower(string(stream)))
	path := filepath.Join(dir, name)
	return path, writeEventRows(path, events)
}

// WriteCombinedCSV writes the aggregated registry to <dir>/all_events.csv.
func WriteCombinedCSV(dir string, events []models.CanonicalEvent) (string, error) {
	path := filepath.Join(dir, "all_events.csv")
	return path, writeEventRows(path, events)
}

// WriteDedupedCSV writes one row per duplicate group to
// <dir>/deduped_events.csv, in group order.
func WriteDedupedCSV(dir string, groups []models.DuplicateGroup) (string, error) {
	path := filepath.Join(dir, "deduped_events.csv")

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(dedupedColumns); err != nil {
		return path, err
	}
	for _, g := range groups {
		row := eventRow(g.Representative())
		row = append(row, strconv.Itoa(len(g.Members)), string(g.Tier))
		if err := w.Write(row); err != nil {
			return path, err
		}
	}
	w.Flush()
	return path, w.Error()
}

func writeEventRows(path string, events []models.CanonicalEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(eventColumns); err != nil {
		return err
	}
	for _, ev := range events {
		if err := w.Write(eventRow(ev)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// eventRow renders one event in column order. Unknown optional fields
// become empty cells, never zeroes.
func eventRow(ev models.CanonicalEvent) []string {
	date := ""
	if ev.RaceDate != nil {
		date = ev.RaceDate.Format("2006-01-02")
	}
	count := ""
	if ev.ParticipantCount != nil {
		count = strconv.Itoa(*ev.ParticipantCount)
	}
	return []string{
		ev.RaceName,
		date,
		ev.City,
		strings.Join(ev.Distances, "|"),
		count,
		ev.EventID,
		string(ev.TimingCompany),
		ev.SourceURL,
	}
}
