package fuzzy

import (
	"sort"
	"strings"
)

// LevenshteinDistance calculates the edit distance between two strings.
func LevenshteinDistance(s1, s2 string) int {
	s1 = normalizeString(s1)
	s2 = normalizeString(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}
	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// ScoreCandidate scores how well a candidate string matches a typed query.
// Higher score = better match. Zero means no plausible match.
func ScoreCandidate(query, candidate string) float64 {
	query = normalizeString(query)
	candidateNorm := normalizeString(candidate)
	if query == "" || candidateNorm == "" {
		return 0
	}

	score := 0.0
	if candidateNorm == query {
		score += 100.0
	}
	if strings.Contains(candidateNorm, query) {
		score += 100.0
		if strings.HasPrefix(candidateNorm, query) {
			score += 50.0
		}
	}

	threshold := typoThreshold(query)
	for _, word := range strings.Fields(candidateNorm) {
		if strings.HasPrefix(word, query) {
			score += 40.0
			continue
		}
		dist := LevenshteinDistance(query, word)
		if dist <= threshold {
			score += 50.0 - float64(dist)*15
		}
	}

	return score
}

// RankCandidates returns the candidates that match the query, best first,
// capped at limit. Candidate order breaks score ties.
func RankCandidates(query string, candidates []string, limit int) []string {
	type scored struct {
		value string
		score float64
		index int
	}

	var matches []scored
	for i, candidate := range candidates {
		score := ScoreCandidate(query, candidate)
		if score > 0 {
			matches = append(matches, scored{value: candidate, score: score, index: i})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	results := make([]string, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.value)
	}
	return results
}

// typoThreshold widens edit-distance tolerance for longer queries.
func typoThreshold(query string) int {
	switch {
	case len(query) <= 3:
		return 1
	case len(query) >= 8:
		return 3
	default:
		return 2
	}
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// normalizeString converts to lowercase and collapses whitespace
func normalizeString(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}
