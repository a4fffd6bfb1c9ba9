package dedup

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// Config tunes the probable tier. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// SimilarityThreshold is the minimum name similarity for a
	// probable match, inclusive.
	SimilarityThreshold float64
	// DateWindowDays is the maximum calendar-day gap, inclusive, for a
	// probable match.
	DateWindowDays int
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.85,
		DateWindowDays:      7,
	}
}

// Deduplicator groups canonical events into duplicate clusters across
// three confidence tiers.
//
// The exact tier merges records whose case-folded names match and whose
// extracted years agree; exact matching is transitive. The probable
// tier merges exact clusters whose names score at or above the
// similarity threshold, whose cities match case-insensitively, and
// whose dates fall within the date window; probable matching is NOT
// transitive, so a set of clusters merges only when every cross pair
// qualifies. Anything that cannot be confidently placed, including
// records missing the city or date a probable comparison needs, lands
// in the manual-review tier.
type Deduplicator struct {
	cfg Config
}

func New(cfg Config) *Deduplicator {
	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultConfig().SimilarityThreshold
	}
	if cfg.DateWindowDays == 0 {
		cfg.DateWindowDays = DefaultConfig().DateWindowDays
	}
	return &Deduplicator{cfg: cfg}
}

// Deduplicate partitions events into duplicate groups. Every input
// record appears in exactly one group. Group order follows the first
// appearance of each group's earliest member, and members keep input
// order, so the output is deterministic for a given input sequence.
func (d *Deduplicator) Deduplicate(events []models.CanonicalEvent) []models.DuplicateGroup {
	if len(events) == 0 {
		return nil
	}

	uf := newUnionFind(len(events))

	// Exact tier: same folded name, same known year. Records whose year
	// cannot be extracted never exact-match anything.
	exactSeen := make(map[exactKey]int)
	for i, ev := range events {
		year := extractYear(ev)
		if year == 0 {
			continue
		}
		key := exactKey{name: foldName(ev.RaceName), year: year}
		if first, ok := exactSeen[key]; ok {
			uf.union(first, i)
		} else {
			exactSeen[key] = i
		}
	}

	clusters := uf.clusters()

	// Probable tier: bridge exact clusters pairwise, then merge only
	// the bridged components whose cross pairs all qualify.
	adj := d.probableEdges(events, clusters)
	components := connectedComponents(len(clusters), adj)

	var groups []models.DuplicateGroup
	for _, comp := range components {
		groups = append(groups, d.finalize(events, clusters, comp)...)
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a].Indexes[0] < groups[b].Indexes[0]
	})

	log.Printf("[dedup] %d events -> %d groups", len(events), len(groups))
	return groups
}

type exactKey struct {
	name string
	year int
}

// extractYear pulls the race year from the date when known, else from a
// four-digit token in the name. Listings without a parseable date very
// often carry the year in the event title.
func extractYear(ev models.CanonicalEvent) int {
	if y := ev.Year(); y != 0 {
		return y
	}
	for _, field := range strings.Fields(ev.RaceName) {
		if len(field) != 4 {
			continue
		}
		year := 0
		ok := true
		for _, r := range field {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			year = year*10 + int(r-'0')
		}
		if ok && year >= 1990 && year <= 2100 {
			return year
		}
	}
	return 0
}

// probableEdges returns, per exact cluster, the clusters it pairs with
// under the probable criteria. Any qualifying cross-cluster record pair
// creates an edge; whether the bridged clusters actually merge is
// decided later by the all-pairs consistency check. Representatives
// alone are not enough here: a qualifying pair hidden behind a
// non-representative member still makes the clusters ambiguous.
func (d *Deduplicator) probableEdges(events []models.CanonicalEvent, clusters [][]int) map[int][]int {
	adj := make(map[int][]int)
	for a := 0; a < len(clusters); a++ {
		for b := a + 1; b < len(clusters); b++ {
			if d.clustersBridge(events, clusters[a], clusters[b]) {
				adj[a] = append(adj[a], b)
				adj[b] = append(adj[b], a)
			}
		}
	}
	return adj
}

// clustersBridge reports whether any record pair across two clusters
// satisfies the probable criteria.
func (d *Deduplicator) clustersBridge(events []models.CanonicalEvent, a, b []int) bool {
	for _, i := range a {
		for _, j := range b {
			if d.pairProbable(events[i], events[j]) {
				return true
			}
		}
	}
	return false
}

// pairProbable applies the probable-tier criteria to two records. Both
// must carry a city and a date; missing either disqualifies the pair
// rather than letting it match vacuously.
func (d *Deduplicator) pairProbable(a, b models.CanonicalEvent) bool {
	if a.City == "" || b.City == "" || a.RaceDate == nil || b.RaceDate == nil {
		return false
	}
	if foldName(a.City) != foldName(b.City) {
		return false
	}
	if dayGap(*a.RaceDate, *b.RaceDate) > d.cfg.DateWindowDays {
		return false
	}
	return Similarity(a.RaceName, b.RaceName) >= d.cfg.SimilarityThreshold
}

func dayGap(a, b time.Time) int {
	gap := int(a.Sub(b).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// finalize turns one bridged component into output groups. A component
// of a single cluster keeps its exact (or singleton) status. A larger
// component merges into one probable group only when every cross-
// cluster record pair qualifies; otherwise the bridge is untrusted and
// each cluster is emitted separately for manual review.
func (d *Deduplicator) finalize(events []models.CanonicalEvent, clusters [][]int, comp []int) []models.DuplicateGroup {
	if len(comp) == 1 {
		cluster := clusters[comp[0]]
		return []models.DuplicateGroup{buildGroup(events, cluster, d.singleClusterTier(events, cluster))}
	}

	if d.componentConsistent(events, clusters, comp) {
		var merged []int
		for _, c := range comp {
			merged = append(merged, clusters[c]...)
		}
		sort.Ints(merged)
		return []models.DuplicateGroup{buildGroup(events, merged, models.TierProbable)}
	}

	// The probable links are contradictory somewhere in this component,
	// so no merge can be trusted. Hand every involved cluster to a
	// human instead of guessing which links were real.
	groups := make([]models.DuplicateGroup, 0, len(comp))
	for _, c := range comp {
		groups = append(groups, buildGroup(events, clusters[c], models.TierManualReview))
	}
	return groups
}

// componentConsistent verifies that every cross-cluster record pair in
// the component satisfies the probable criteria.
func (d *Deduplicator) componentConsistent(events []models.CanonicalEvent, clusters [][]int, comp []int) bool {
	for x := 0; x < len(comp); x++ {
		for y := x + 1; y < len(comp); y++ {
			for _, i := range clusters[comp[x]] {
				for _, j := range clusters[comp[y]] {
					if !d.pairProbable(events[i], events[j]) {
						return false
					}
				}
			}
		}
	}
	return true
}

// singleClusterTier decides the tier of a group that gained no probable
// links. Multi-member clusters matched exactly. A singleton whose city
// and date are present was genuinely compared against everything and
// found unique; one missing those fields was never comparable at all.
func (d *Deduplicator) singleClusterTier(events []models.CanonicalEvent, cluster []int) models.Tier {
	if len(cluster) > 1 {
		return models.TierExact
	}
	ev := events[cluster[0]]
	if ev.City == "" || ev.RaceDate == nil {
		return models.TierManualReview
	}
	return models.TierExact
}

func buildGroup(events []models.CanonicalEvent, indexes []int, tier models.Tier) models.DuplicateGroup {
	members := make([]models.CanonicalEvent, len(indexes))
	for i, idx := range indexes {
		members[i] = events[idx]
	}
	return models.DuplicateGroup{
		Members: members,
		Indexes: append([]int(nil), indexes...),
		Tier:    tier,
	}
}

// unionFind is a standard disjoint-set over event indexes.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Keep the smaller index as root so cluster order follows input
	// order.
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}

// clusters groups event indexes by root, each cluster sorted ascending,
// clusters ordered by their smallest member.
func (u *unionFind) clusters() [][]int {
	byRoot := make(map[int][]int)
	for i := range u.parent {
		root := u.find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	roots := make([]int, 0, len(byRoot))
	for root := range byRoot {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	clusters := make([][]int, 0, len(roots))
	for _, root := range roots {
		members := byRoot[root]
		sort.Ints(members)
		clusters = append(clusters, members)
	}
	return clusters
}

// connectedComponents walks the probable adjacency over clusters.
// Components are ordered and internally sorted by cluster index.
func connectedComponents(n int, adj map[int][]int) [][]int {
	visited := make([]bool, n)
	var components [][]int
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		var comp []int
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, node)
			for _, next := range adj[node] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		sort.Ints(comp)
		components = append(components, comp)
	}
	return components
}
