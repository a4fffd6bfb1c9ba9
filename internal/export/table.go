package export

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// SourceSummary is one row of the per-platform run report.
type SourceSummary struct {
	Platform models.PlatformTag
	Found    int
	Saved    int
	Errors   int
}

// RenderRunSummary prints the per-platform ingestion report.
func RenderRunSummary(out io.Writer, summaries []SourceSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Platform", "Found", "Saved", "Errors"})

	totalFound, totalSaved, totalErrors := 0, 0, 0
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Platform, s.Found, s.Saved, s.Errors})
		totalFound += s.Found
		totalSaved += s.Saved
		totalErrors += s.Errors
	}
	t.AppendFooter(table.Row{"Total", totalFound, totalSaved, totalErrors})
	t.Render()
}

// RenderDedupSummary prints group counts per confidence tier.
func RenderDedupSummary(out io.Writer, groups []models.DuplicateGroup) {
	counts := map[models.Tier]int{}
	members := map[models.Tier]int{}
	for _, g := range groups {
		counts[g.Tier]++
		members[g.Tier] += len(g.Members)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Tier", "Groups", "Events"})
	for _, tier := range []models.Tier{models.TierExact, models.TierProbable, models.TierManualReview} {
		t.AppendRow(table.Row{string(tier), counts[tier], members[tier]})
	}
	t.AppendFooter(table.Row{"Total", len(groups), totalMembers(groups)})
	t.Render()
}

func totalMembers(groups []models.DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Members)
	}
	return n
}
