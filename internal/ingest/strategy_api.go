package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
)

// APIStrategy ingests platforms that expose a JSON events endpoint. The
// endpoint is queried once per year; each year's payload is flattened
// through the platform's normalizer.
type APIStrategy struct{}

func (s *APIStrategy) Run(ctx context.Context, cfg PlatformConfig, p *Pipeline) (SourceStream, error) {
	stream := SourceStream{Platform: cfg.ID}
	if cfg.EventsAPI == "" {
		return stream, fmt.Errorf("%s: no events_api configured", cfg.ID)
	}

	norm := NewNormalizer(cfg.ID, cfg.Fields)
	yearParam := cfg.YearParam
	if yearParam == "" {
		yearParam = "year"
	}

	for _, year := range p.Years {
		select {
		case <-ctx.Done():
			return stream, ctx.Err()
		default:
		}

		target, err := yearURL(cfg.EventsAPI, yearParam, year)
		if err != nil {
			return stream, err
		}

		doc, err := p.Fetcher.Fetch(ctx, target)
		if err != nil {
			// One unreachable year should not sink the rest of the
			// platform's history.
			log.Printf("[%s] %d: fetch failed: %v", cfg.ID, year, err)
			continue
		}

		var raw any
		decodeErr := json.NewDecoder(doc.Body).Decode(&raw)
		doc.Body.Close()
		if decodeErr != nil {
			return stream, &SchemaError{Platform: cfg.ID, Detail: fmt.Sprintf("invalid JSON for %d: %v", year, decodeErr)}
		}

		events, err := norm.NormalizeResponse(raw, target)
		if err != nil {
			return stream, err
		}

		log.Printf("[%s] %d: %d events", cfg.ID, year, len(events))
		stream.Events = append(stream.Events, events...)
	}

	return stream, nil
}

// yearURL appends the year query parameter to the configured endpoint,
// preserving any parameters already baked into it.
func yearURL(endpoint, param string, year int) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid events_api %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set(param, fmt.Sprintf("%d", year))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
