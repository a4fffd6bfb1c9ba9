package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// fakeResolver confirms URLs from a fixed set and can fail a URL's
// first N checks with a transient error.
type fakeResolver struct {
	mu        sync.Mutex
	exists    map[string]bool
	failFirst map[string]int
	calls     map[string]int
}

func newFakeResolver(exists ...string) *fakeResolver {
	set := make(map[string]bool, len(exists))
	for _, u := range exists {
		set[u] = true
	}
	return &fakeResolver{
		exists:    set,
		failFirst: make(map[string]int),
		calls:     make(map[string]int),
	}
}

func (r *fakeResolver) Resolve(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[url]++
	if r.failFirst[url] > 0 {
		r.failFirst[url]--
		return false, fmt.Errorf("transient: connection reset")
	}
	return r.exists[url], nil
}

func TestBuildCandidates(t *testing.T) {
	candidates := BuildCandidates("https://mysamay.in/event/%s-%d",
		[]string{"mumbai-marathon", "kolkata-25k"}, []int{2023, 2024})

	want := []string{
		"https://mysamay.in/event/mumbai-marathon-2023",
		"https://mysamay.in/event/mumbai-marathon-2024",
		"https://mysamay.in/event/kolkata-25k-2023",
		"https://mysamay.in/event/kolkata-25k-2024",
	}
	if len(candidates) != len(want) {
		t.Fatalf("len(candidates) = %d, want %d", len(candidates), len(want))
	}
	for i, w := range want {
		if candidates[i].URL != w {
			t.Errorf("candidates[%d].URL = %q, want %q", i, candidates[i].URL, w)
		}
	}
}

func TestProbeConfirmedCandidatesInOrder(t *testing.T) {
	resolver := newFakeResolver(
		"https://mysamay.in/event/a-race-2023",
		"https://mysamay.in/event/b-race-2024",
	)
	prober := &Prober{Resolver: resolver, Parallelism: 4}

	candidates := BuildCandidates("https://mysamay.in/event/%s-%d",
		[]string{"a-race", "b-race"}, []int{2023, 2024})

	events := prober.Probe(context.Background(), models.PlatformMySamay, candidates)
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// Output order follows candidate order regardless of probe timing.
	if events[0].EventID != "a-race-2023" || events[1].EventID != "b-race-2024" {
		t.Errorf("event order = [%s, %s], want [a-race-2023, b-race-2024]",
			events[0].EventID, events[1].EventID)
	}
	if events[0].RaceName != "A Race" {
		t.Errorf("RaceName = %q, want slug humanized", events[0].RaceName)
	}
	if events[0].RaceDate != nil {
		t.Errorf("RaceDate = %v, probes must not fabricate dates", events[0].RaceDate)
	}
	if events[0].TimingCompany != models.PlatformMySamay {
		t.Errorf("TimingCompany = %q", events[0].TimingCompany)
	}
}

func TestProbeRetriesTransientFailures(t *testing.T) {
	url := "https://mysamay.in/event/flaky-race-2023"
	resolver := newFakeResolver(url)
	resolver.failFirst[url] = 2

	prober := &Prober{Resolver: resolver, Parallelism: 1, MaxAttempts: 3}
	candidates := BuildCandidates("https://mysamay.in/event/%s-%d", []string{"flaky-race"}, []int{2023})

	events := prober.Probe(context.Background(), models.PlatformMySamay, candidates)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1 after retries", len(events))
	}
	if resolver.calls[url] != 3 {
		t.Errorf("calls = %d, want 3", resolver.calls[url])
	}
}

func TestProbeGivesUpAfterMaxAttempts(t *testing.T) {
	url := "https://mysamay.in/event/down-race-2023"
	resolver := newFakeResolver(url)
	resolver.failFirst[url] = 100

	prober := &Prober{Resolver: resolver, Parallelism: 1, MaxAttempts: 3}
	candidates := BuildCandidates("https://mysamay.in/event/%s-%d", []string{"down-race"}, []int{2023})

	events := prober.Probe(context.Background(), models.PlatformMySamay, candidates)
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0: a failing check is not a confirmation", len(events))
	}
	if resolver.calls[url] != 3 {
		t.Errorf("calls = %d, want exactly MaxAttempts", resolver.calls[url])
	}
}

func TestProbeNotFoundIsNotRetried(t *testing.T) {
	resolver := newFakeResolver() // nothing exists
	prober := &Prober{Resolver: resolver, Parallelism: 1, MaxAttempts: 3}
	candidates := BuildCandidates("https://mysamay.in/event/%s-%d", []string{"ghost-race"}, []int{2023})

	events := prober.Probe(context.Background(), models.PlatformMySamay, candidates)
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0", len(events))
	}
	if got := resolver.calls["https://mysamay.in/event/ghost-race-2023"]; got != 1 {
		t.Errorf("calls = %d, definitive not-found must not be retried", got)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	resolver := newFakeResolver("https://mysamay.in/event/a-race-2023")
	prober := &Prober{Resolver: resolver, Parallelism: 2}
	candidates := BuildCandidates("https://mysamay.in/event/%s-%d",
		[]string{"a-race", "b-race", "c-race"}, []int{2023})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := prober.Probe(ctx, models.PlatformMySamay, candidates)
	if len(events) != 0 {
		t.Errorf("len(events) = %d, want 0 with a cancelled context", len(events))
	}
}

func TestHumanizeSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"mumbai-marathon", "Mumbai Marathon"},
		{"kolkata-25k", "Kolkata 25k"},
		{"delhi_half_marathon", "Delhi Half Marathon"},
		{"tcs10k", "Tcs10k"},
	}
	for _, tt := range tests {
		if got := humanizeSlug(tt.slug); got != tt.want {
			t.Errorf("humanizeSlug(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}
