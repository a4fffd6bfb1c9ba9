package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// EventStore persists ingested events. The pipeline runs fine without
// one; CSV-only runs just skip persistence.
type EventStore interface {
	SaveEvents(ctx context.Context, runID string, platform models.PlatformTag, events []models.CanonicalEvent) (int, error)
	RecordRun(ctx context.Context, runID string, platform models.PlatformTag, stats IngestionStats) error
}

// Pipeline orchestrates ingestion across the configured platforms.
type Pipeline struct {
	Registry *Registry
	Fetcher  Fetcher
	Store    EventStore // optional
	Years    []int
}

func NewPipeline(registry *Registry, fetcher Fetcher, years []int) *Pipeline {
	return &Pipeline{
		Registry: registry,
		Fetcher:  fetcher,
		Years:    years,
	}
}

// RunSource ingests a single platform end to end.
func (p *Pipeline) RunSource(ctx context.Context, tag models.PlatformTag) (SourceStream, IngestionStats, error) {
	return p.runSource(ctx, tag, uuid.NewString())
}

func (p *Pipeline) runSource(ctx context.Context, tag models.PlatformTag, runID string) (SourceStream, IngestionStats, error) {
	var stats IngestionStats

	cfg, err := p.Registry.Get(tag)
	if err != nil {
		return SourceStream{Platform: tag}, stats, err
	}

	strategy, err := GlobalStrategyFactory.Get(cfg.Strategy)
	if err != nil {
		return SourceStream{Platform: tag}, stats, fmt.Errorf("%s: %w", tag, err)
	}

	if rlf, ok := p.Fetcher.(*RateLimitedFetcher); ok {
		for _, domain := range cfg.Domains() {
			rlf.SetDomainConfig(domain, cfg.Fetch, cfg.AuthHeader)
		}
	}

	stream, err := strategy.Run(ctx, *cfg, p)
	stats.TotalFound = len(stream.Events)
	if err != nil {
		stats.Errors++
		return stream, stats, fmt.Errorf("%s: %w", tag, err)
	}

	if p.Store != nil {
		saved, err := p.Store.SaveEvents(ctx, runID, tag, stream.Events)
		if err != nil {
			stats.Errors++
			return stream, stats, fmt.Errorf("%s: save events: %w", tag, err)
		}
		stats.TotalSaved = saved
		if err := p.Store.RecordRun(ctx, runID, tag, stats); err != nil {
			log.Printf("[%s] record run %s: %v", tag, runID, err)
		}
	}

	return stream, stats, nil
}

// RunAll ingests every registered platform concurrently. Streams come
// back in registry order, one slot per platform, so downstream
// aggregation is deterministic. A platform that fails keeps its slot
// with an empty stream; its error is logged and counted, never allowed
// to sink the other platforms.
func (p *Pipeline) RunAll(ctx context.Context) ([]SourceStream, []IngestionStats) {
	runID := uuid.NewString()
	log.Printf("[pipeline] run %s: %d platforms, years %v", runID, len(p.Registry.Platforms), p.Years)

	streams := make([]SourceStream, len(p.Registry.Platforms))
	stats := make([]IngestionStats, len(p.Registry.Platforms))

	var wg sync.WaitGroup
	for i, cfg := range p.Registry.Platforms {
		wg.Add(1)
		go func(idx int, tag models.PlatformTag) {
			defer wg.Done()
			stream, st, err := p.runSource(ctx, tag, runID)
			if err != nil {
				log.Printf("[%s] ingestion failed: %v", tag, err)
			}
			streams[idx] = stream
			stats[idx] = st
		}(i, cfg.ID)
	}
	wg.Wait()

	return streams, stats
}
