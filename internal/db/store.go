package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/ingest"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// Store persists events, duplicate groups and run records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// dedupeKey identifies an event row for upserts: platform, folded name,
// year and source event id. Re-ingesting a platform updates rows in
// place instead of piling up duplicates of its own history.
func dedupeKey(ev models.CanonicalEvent) string {
	folded := strings.ToLower(strings.Join(strings.Fields(ev.RaceName), " "))
	return fmt.Sprintf("%s|%s|%d|%s", ev.TimingCompany, folded, ev.Year(), ev.EventID)
}

// SaveEvents upserts a platform's events and returns how many rows were
// written.
func (s *Store) SaveEvents(ctx context.Context, runID string, platform models.PlatformTag, events []models.CanonicalEvent) (int, error) {
	saved := 0
	for _, ev := range events {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO events (
				dedupe_key, race_name, race_date, city, distances,
				participant_count, event_id, timing_company, source_url, run_id, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (dedupe_key) DO UPDATE SET
				race_name = EXCLUDED.race_name,
				race_date = EXCLUDED.race_date,
				city = EXCLUDED.city,
				distances = EXCLUDED.distances,
				participant_count = EXCLUDED.participant_count,
				event_id = EXCLUDED.event_id,
				source_url = EXCLUDED.source_url,
				run_id = EXCLUDED.run_id,
				updated_at = now()`,
			dedupeKey(ev), ev.RaceName, ev.RaceDate, ev.City, ev.Distances,
			ev.ParticipantCount, ev.EventID, string(ev.TimingCompany), ev.SourceURL, runID,
		)
		if err != nil {
			return saved, fmt.Errorf("upsert event %q: %w", ev.RaceName, err)
		}
		saved++
	}
	return saved, nil
}

// RecordRun appends one platform's stats for an ingestion run.
func (s *Store) RecordRun(ctx context.Context, runID string, platform models.PlatformTag, stats ingest.IngestionStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_runs (run_id, platform, total_found, total_saved, errors)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, string(platform), stats.TotalFound, stats.TotalSaved, stats.Errors,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// SaveGroups replaces the stored duplicate groups with the result of a
// fresh dedup pass.
func (s *Store) SaveGroups(ctx context.Context, runID string, groups []models.DuplicateGroup) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM duplicate_groups`); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}

	for _, g := range groups {
		members, err := json.Marshal(g.Members)
		if err != nil {
			return fmt.Errorf("marshal group members: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO duplicate_groups (run_id, tier, member_count, representative_name, members)
			VALUES ($1, $2, $3, $4, $5)`,
			runID, string(g.Tier), len(g.Members), g.Representative().RaceName, members,
		)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListEvents returns stored events, optionally filtered by platform and
// year, newest dates first with undated events last.
func (s *Store) ListEvents(ctx context.Context, platform models.PlatformTag, year int, limit int) ([]models.CanonicalEvent, error) {
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}

	query := `
		SELECT race_name, race_date, city, distances, participant_count,
		       event_id, timing_company, source_url
		FROM events WHERE 1=1`
	args := []any{}
	argN := 1
	if platform != "" {
		query += fmt.Sprintf(" AND timing_company = $%d", argN)
		args = append(args, string(platform))
		argN++
	}
	if year != 0 {
		query += fmt.Sprintf(" AND EXTRACT(YEAR FROM race_date) = $%d", argN)
		args = append(args, year)
		argN++
	}
	query += fmt.Sprintf(" ORDER BY race_date DESC NULLS LAST, race_name LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.CanonicalEvent
	for rows.Next() {
		var ev models.CanonicalEvent
		var company string
		if err := rows.Scan(&ev.RaceName, &ev.RaceDate, &ev.City, &ev.Distances,
			&ev.ParticipantCount, &ev.EventID, &company, &ev.SourceURL); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.TimingCompany = models.PlatformTag(company)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListGroups returns stored duplicate groups, optionally filtered by
// tier.
func (s *Store) ListGroups(ctx context.Context, tier models.Tier) ([]models.DuplicateGroup, error) {
	query := `SELECT tier, members FROM duplicate_groups`
	args := []any{}
	if tier != "" {
		query += ` WHERE tier = $1`
		args = append(args, string(tier))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.DuplicateGroup
	for rows.Next() {
		var g models.DuplicateGroup
		var tierStr string
		var members []byte
		if err := rows.Scan(&tierStr, &members); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		if err := json.Unmarshal(members, &g.Members); err != nil {
			return nil, fmt.Errorf("decode group members: %w", err)
		}
		g.Tier = models.Tier(tierStr)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
