package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// DOMOptionsStrategy handles legacy result portals that render their
// event list as a <select> dropdown instead of exposing an API. Each
// discover URL is fetched and every <option> becomes a candidate
// record: the option text is the race name, the option value usually
// carries the portal's internal event id.
type DOMOptionsStrategy struct {
	// Fetcher overrides the default Colly-backed fetcher, mainly for
	// tests.
	Fetcher Fetcher
}

// sanitizer strips any markup that leaks into scraped text nodes.
var sanitizer = bluemonday.StrictPolicy()

func (s *DOMOptionsStrategy) Run(ctx context.Context, cfg PlatformConfig, p *Pipeline) (SourceStream, error) {
	stream := SourceStream{Platform: cfg.ID}
	if len(cfg.DiscoverURLs) == 0 {
		return stream, fmt.Errorf("%s: no discover_urls configured", cfg.ID)
	}

	fetcher := s.Fetcher
	if fetcher == nil {
		// Listing portals are plain websites, not APIs; Colly's polite
		// per-domain delays fit them better than the API fetcher.
		fetcher = CollyFetcherWithConfig(cfg.Fetch)
	}

	norm := NewNormalizer(cfg.ID, cfg.Fields)
	seen := make(map[string]bool)

	for _, pageURL := range cfg.DiscoverURLs {
		select {
		case <-ctx.Done():
			return stream, ctx.Err()
		default:
		}

		doc, err := fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Printf("[%s] discover %s: fetch failed: %v", cfg.ID, pageURL, err)
			continue
		}

		events, err := extractOptionEvents(norm, doc, seen)
		doc.Body.Close()
		if err != nil {
			return stream, err
		}

		log.Printf("[%s] discover %s: %d events", cfg.ID, pageURL, len(events))
		stream.Events = append(stream.Events, events...)
	}

	return stream, nil
}

// extractOptionEvents parses the fetched page and normalizes each
// usable <option> element. Placeholder options ("Select Event", bare
// numbers) and duplicates across pages are skipped.
func extractOptionEvents(norm *Normalizer, doc *FetchedDocument, seen map[string]bool) ([]models.CanonicalEvent, error) {
	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return nil, &SchemaError{Platform: norm.Platform, Detail: fmt.Sprintf("unparseable HTML: %v", err)}
	}

	var events []models.CanonicalEvent
	page.Find("select option").Each(func(_ int, sel *goquery.Selection) {
		name := cleanText(sanitizer.Sanitize(sel.Text()))
		if !plausibleRaceName(name) {
			return
		}
		key := foldText(name)
		if seen[key] {
			return
		}
		seen[key] = true

		record := RawRecord{"race_name": name}
		if val, ok := sel.Attr("value"); ok && cleanText(val) != "" {
			record["event_id"] = cleanText(val)
		}
		ev, err := norm.Normalize(record, doc.URL)
		if err != nil {
			return
		}
		events = append(events, ev)
	})

	return events, nil
}

// plausibleRaceName filters dropdown placeholders and junk values.
func plausibleRaceName(name string) bool {
	if len(name) < 4 {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "select") || strings.HasPrefix(lower, "choose") || lower == "all events" {
		return false
	}
	digitsOnly := true
	for _, r := range name {
		if r < '0' || r > '9' {
			digitsOnly = false
			break
		}
	}
	return !digitsOnly
}
