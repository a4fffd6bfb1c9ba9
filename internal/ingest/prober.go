package ingest

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// Resolver answers whether an event page exists at a URL. A false
// return with nil error is a definitive not-found; an error means the
// check itself failed and may be retried.
type Resolver interface {
	Resolve(ctx context.Context, url string) (bool, error)
}

// ProbeCandidate is one slug/year combination to test.
type ProbeCandidate struct {
	Slug string
	Year int
	URL  string
}

// Prober discovers events on platforms with no listing endpoint at all
// by enumerating known event slugs across a year range and checking
// which pages exist.
type Prober struct {
	Resolver    Resolver
	Parallelism int
	MaxAttempts int
}

// BuildCandidates expands the slug list across the year range in slug
// order, years ascending within each slug.
func BuildCandidates(template string, slugs []string, years []int) []ProbeCandidate {
	candidates := make([]ProbeCandidate, 0, len(slugs)*len(years))
	for _, slug := range slugs {
		for _, year := range years {
			candidates = append(candidates, ProbeCandidate{
				Slug: slug,
				Year: year,
				URL:  fmt.Sprintf(template, slug, year),
			})
		}
	}
	return candidates
}

// Probe checks every candidate and returns an event for each confirmed
// page, in candidate order regardless of which probes finished first.
// Candidates whose checks keep failing after retries are skipped, not
// treated as confirmations. Cancelling ctx stops new probes from
// starting; in-flight ones run to completion.
func (p *Prober) Probe(ctx context.Context, platform models.PlatformTag, candidates []ProbeCandidate) []models.CanonicalEvent {
	parallelism := p.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}

	results := make([]*models.CanonicalEvent, len(candidates))
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, cand := range candidates {
		select {
		case <-ctx.Done():
			log.Printf("[%s] probe cancelled after %d/%d candidates", platform, i, len(candidates))
			wg.Wait()
			return collectProbeResults(results)
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, cand ProbeCandidate) {
			defer wg.Done()
			defer func() { <-sem }()
			if ev, ok := p.probeOne(ctx, platform, cand); ok {
				results[idx] = &ev
			}
		}(i, cand)
	}

	wg.Wait()
	return collectProbeResults(results)
}

// probeOne resolves a single candidate with bounded retries.
func (p *Prober) probeOne(ctx context.Context, platform models.PlatformTag, cand ProbeCandidate) (models.CanonicalEvent, bool) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts(); attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return models.CanonicalEvent{}, false
			case <-time.After(backoffDelay(attempt - 1)):
			}
		}

		found, err := p.Resolver.Resolve(ctx, cand.URL)
		if err != nil {
			lastErr = err
			continue
		}
		if !found {
			return models.CanonicalEvent{}, false
		}
		return models.CanonicalEvent{
			RaceName:      humanizeSlug(cand.Slug),
			EventID:       fmt.Sprintf("%s-%d", cand.Slug, cand.Year),
			TimingCompany: platform,
			SourceURL:     cand.URL,
		}, true
	}

	log.Printf("[%s] probe %s: giving up after %d attempts: %v", platform, cand.URL, p.maxAttempts(), lastErr)
	return models.CanonicalEvent{}, false
}

func (p *Prober) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 3
	}
	return p.MaxAttempts
}

func collectProbeResults(results []*models.CanonicalEvent) []models.CanonicalEvent {
	var events []models.CanonicalEvent
	for _, r := range results {
		if r != nil {
			events = append(events, *r)
		}
	}
	return events
}

// humanizeSlug turns "mumbai-marathon" into "Mumbai Marathon". The
// probed pages are never parsed, so the slug is the best name we have.
func humanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// HTTPResolver checks page existence with a plain GET. 404 and 410 are
// definitive not-founds; server-side and rate-limit failures surface as
// errors so the prober retries them.
type HTTPResolver struct {
	Client *http.Client
}

func NewHTTPResolver(timeout time.Duration) *HTTPResolver {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPResolver{Client: &http.Client{Timeout: timeout}}
}

func (r *HTTPResolver) Resolve(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, fmt.Errorf("status code %d", resp.StatusCode)
	}
}
