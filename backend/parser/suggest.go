package parser

import "strings"

// ClosestMatch returns the candidate with the smallest case-insensitive
// Levenshtein distance to input, provided that distance does not exceed
// maxDistance. Ties resolve to the first-seen candidate, so the result
// is deterministic under the candidate slice order. The second return
// is false when no candidate qualifies.
func ClosestMatch(input string, candidates []string, maxDistance int) (string, bool) {
	best := ""
	bestDist := maxDistance + 1
	lower := strings.ToLower(input)
	for _, cand := range candidates {
		d := levenshtein(lower, strings.ToLower(cand))
		if d < bestDist {
			best = cand
			bestDist = d
		}
	}
	if bestDist > maxDistance {
		return "", false
	}
	return best, true
}

// levenshtein computes edit distance with a rolling single-row matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur := i
		diag := prev[0]
		prev[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			next := diag + cost
			if prev[j]+1 < next {
				next = prev[j] + 1
			}
			if cur+1 < next {
				next = cur + 1
			}
			diag = prev[j]
			prev[j] = next
			cur = next
		}
	}
	return prev[len(rb)]
}
