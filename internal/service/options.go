package service

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// FilterOptions narrows a selection list by a typed query. Substring matches
// rank first, then near-misses by edit distance against individual label
// words; everything else drops out. An empty query returns the list as-is.
func FilterOptions(opts []Option, query string) []Option {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return opts
	}

	type ranked struct {
		opt  Option
		rank int // 0 substring, 1 fuzzy
		dist int
	}
	var matches []ranked
	for _, opt := range opts {
		label := strings.ToLower(opt.Label)
		if strings.Contains(label, query) {
			matches = append(matches, ranked{opt: opt, rank: 0, dist: strings.Index(label, query)})
			continue
		}
		if d, ok := nearestWordDistance(label, query); ok {
			matches = append(matches, ranked{opt: opt, rank: 1, dist: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].dist < matches[j].dist
	})

	out := make([]Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.opt)
	}
	return out
}

// nearestWordDistance finds the best edit distance between query and any
// word of the label, tolerating roughly a third of the query length.
func nearestWordDistance(label, query string) (int, bool) {
	budget := len(query) / 3
	if budget < 1 {
		return 0, false
	}
	best := -1
	for _, word := range strings.Fields(label) {
		d := levenshtein.ComputeDistance(word, query)
		if best == -1 || d < best {
			best = d
		}
	}
	if best == -1 || best > budget {
		return 0, false
	}
	return best, true
}
