package ingest

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ProbeStrategy adapts the slug prober to the common strategy
// interface for platforms configured with a url_template.
type ProbeStrategy struct {
	// Resolver overrides the default HTTP resolver, mainly for tests.
	Resolver Resolver
}

func (s *ProbeStrategy) Run(ctx context.Context, cfg PlatformConfig, p *Pipeline) (SourceStream, error) {
	stream := SourceStream{Platform: cfg.ID}
	if cfg.Probe.URLTemplate == "" {
		return stream, fmt.Errorf("%s: no probe url_template configured", cfg.ID)
	}
	if len(cfg.Probe.Slugs) == 0 {
		return stream, fmt.Errorf("%s: no probe slugs configured", cfg.ID)
	}

	resolver := s.Resolver
	if resolver == nil {
		timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
		resolver = NewHTTPResolver(timeout)
	}

	prober := &Prober{
		Resolver:    resolver,
		Parallelism: cfg.Probe.Parallelism,
		MaxAttempts: cfg.Probe.MaxAttempts,
	}

	candidates := BuildCandidates(cfg.Probe.URLTemplate, cfg.Probe.Slugs, p.Years)
	stream.Events = prober.Probe(ctx, cfg.ID, candidates)
	log.Printf("[%s] probe: %d/%d candidates confirmed", cfg.ID, len(stream.Events), len(candidates))
	return stream, nil
}
