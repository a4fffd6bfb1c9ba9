package dedup

import (
	"strings"
)

// Similarity scores how alike two race names are, as
// 2*LCS(a,b)/(len(a)+len(b)) over case-folded, whitespace-collapsed
// runes. The score is 1.0 for identical names, 0.0 when nothing
// matches, and symmetric in its arguments. A longest-common-subsequence
// ratio tolerates word insertions ("Bengaluru Marathon" against
// "Bengaluru Marathon Run") better than edit distance does, which is
// the shape of variation event listings actually show.
func Similarity(a, b string) float64 {
	ra := []rune(foldName(a))
	rb := []rune(foldName(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	lcs := lcsLength(ra, rb)
	return float64(2*lcs) / float64(len(ra)+len(rb))
}

// foldName lowercases and collapses runs of whitespace to single
// spaces, so casing and spacing differences never count against a pair.
func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// lcsLength computes the longest common subsequence length with a
// two-row DP table. Race names are short, so the quadratic cost is
// irrelevant next to the candidate-pair count.
func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
