package enhance

import "strings"

// Dictionary is a lowercase word set with bounded-distance suggestion.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary builds a dictionary from the base word list plus any extra
// (typically game jargon) terms.
func NewDictionary(extra ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(baseWords)+len(extra))}
	for _, w := range baseWords {
		d.words[w] = struct{}{}
	}
	for _, w := range extra {
		d.words[strings.ToLower(w)] = struct{}{}
	}
	return d
}

// Contains reports dictionary membership, case-insensitively.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// Suggest returns the closest dictionary word within maxDist edits, or ""
// when none qualifies. Ties prefer candidates of the same length as the
// input, then lexicographic order, so suggestions are deterministic.
func (d *Dictionary) Suggest(word string, maxDist int) string {
	lower := strings.ToLower(word)
	best := ""
	bestDist := maxDist + 1
	bestLenDiff := 0
	for w := range d.words {
		delta := len(w) - len(lower)
		if delta > maxDist || delta < -maxDist {
			continue
		}
		if delta < 0 {
			delta = -delta
		}
		dist := editDistance(lower, w, maxDist)
		if dist > maxDist {
			continue
		}
		better := dist < bestDist ||
			(dist == bestDist && delta < bestLenDiff) ||
			(dist == bestDist && delta == bestLenDiff && w < best)
		if best == "" || better {
			best, bestDist, bestLenDiff = w, dist, delta
		}
	}
	if bestDist > maxDist {
		return ""
	}
	return best
}

// editDistance is the Levenshtein distance, bounded: any value above limit
// is reported as limit+1.
func editDistance(a, b string, limit int) int {
	if a == b {
		return 0
	}
	la, lb := len(a), len(b)
	if la == 0 {
		return min(lb, limit+1)
	}
	if lb == 0 {
		return min(la, limit+1)
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}
	if prev[lb] > limit {
		return limit + 1
	}
	return prev[lb]
}
