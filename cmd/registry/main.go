package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/db"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/dedup"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/export"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/ingest"
	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

func main() {
	var (
		mode       = flag.String("mode", "ingest", "ingest | dedup")
		yearsFlag  = flag.String("years", "2017-2025", "year range (2017-2025) or list (2023,2024)")
		sourceFlag = flag.String("source", "", "ingest a single platform (STS, iFinish, MySamay, TimingIndia, MyRaceIndia, RaceResult)")
		outDir     = flag.String("out", "./out", "output directory for CSV files")
		configPath = flag.String("config", "config/platforms.yaml", "registry config override path")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	switch *mode {
	case "ingest":
		if err := runIngest(ctx, *configPath, *yearsFlag, *sourceFlag, *outDir); err != nil {
			log.Fatalf("ingest: %v", err)
		}
	case "dedup":
		if err := runDedup(*outDir); err != nil {
			log.Fatalf("dedup: %v", err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runIngest(ctx context.Context, configPath, yearsFlag, sourceFlag, outDir string) error {
	years, err := parseYears(yearsFlag)
	if err != nil {
		return err
	}

	registry, err := ingest.LoadRegistry(configPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	fetcher := ingest.NewRateLimitedFetcher(ingest.FetchConfig{})
	pipeline := ingest.NewPipeline(registry, fetcher, years)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		pipeline.Store = db.NewStore(pool)
	}

	var streams []ingest.SourceStream
	var stats []ingest.IngestionStats

	if sourceFlag != "" {
		tag, ok := models.ParsePlatform(sourceFlag)
		if !ok {
			return fmt.Errorf("unknown platform %q", sourceFlag)
		}
		stream, st, err := pipeline.RunSource(ctx, tag)
		if err != nil {
			log.Printf("[%s] ingestion failed: %v", tag, err)
		}
		streams = []ingest.SourceStream{stream}
		stats = []ingest.IngestionStats{st}
	} else {
		streams, stats = pipeline.RunAll(ctx)
	}

	summaries := make([]export.SourceSummary, len(streams))
	for i, stream := range streams {
		summaries[i] = export.SourceSummary{
			Platform: stream.Platform,
			Found:    stats[i].TotalFound,
			Saved:    stats[i].TotalSaved,
			Errors:   stats[i].Errors,
		}
		if len(stream.Events) == 0 {
			continue
		}
		path, err := export.WriteSourceCSV(outDir, stream.Platform, stream.Events)
		if err != nil {
			return err
		}
		log.Printf("[%s] wrote %s", stream.Platform, path)
	}

	combined := ingest.Aggregate(streams)
	path, err := export.WriteCombinedCSV(outDir, combined)
	if err != nil {
		return err
	}
	log.Printf("[registry] wrote %s (%d events)", path, len(combined))

	export.RenderRunSummary(os.Stdout, summaries)
	return nil
}

func runDedup(outDir string) error {
	combined := filepath.Join(outDir, "all_events.csv")
	events, err := export.ReadEventsCSV(combined)
	if err != nil {
		return fmt.Errorf("run ingest first: %w", err)
	}

	groups := dedup.New(dedup.DefaultConfig()).Deduplicate(events)

	path, err := export.WriteDedupedCSV(outDir, groups)
	if err != nil {
		return err
	}
	log.Printf("[dedup] wrote %s (%d groups)", path, len(groups))

	export.RenderDedupSummary(os.Stdout, groups)
	return nil
}

// parseYears accepts "2017-2025" or "2023,2024", always returning an
// ascending list.
func parseYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty years flag")
	}

	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil || start > end {
			return nil, fmt.Errorf("invalid year range %q", s)
		}
		years := make([]int, 0, end-start+1)
		for y := start; y <= end; y++ {
			years = append(years, y)
		}
		return years, nil
	}

	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}
