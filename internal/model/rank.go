package model

import (
	"sort"
	"strings"
)

// Rank keeps the generation-capable candidates and puts those whose name
// contains currentGen (the newest model family token, e.g. "2.5-") ahead
// of the rest. Listing order is kept within each group.
func Rank(cands []Candidate, currentGen string) []Candidate {
	ranked := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.SupportsGeneration {
			ranked = append(ranked, c)
		}
	}

	if currentGen == "" {
		return ranked
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return strings.Contains(ranked[i].Name, currentGen) && !strings.Contains(ranked[j].Name, currentGen)
	})
	return ranked
}
