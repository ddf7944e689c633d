// Package ranking orders players into a leaderboard with cascading
// tie-breaks and competition ranks.
package ranking

import (
	"slices"
	"strings"
)

// Standing is one player's score buckets.
type Standing struct {
	PlayerID    string
	DisplayName string
	Trio        int
	Icky        int
	Prophecy    int
	Total       int
}

// Ranked is a Standing placed on the leaderboard.
type Ranked struct {
	Standing
	Rank   int
	IsTied bool
}

// tiedWith reports whether a and b share every numeric bucket.
func tiedWith(a, b Standing) bool {
	return a.Total == b.Total &&
		a.Trio == b.Trio &&
		a.Prophecy == b.Prophecy &&
		a.Icky == b.Icky
}

// Compare orders standings best-first: total, trio, prophecy and icky
// descending, then display name ascending. Player id settles identical names.
func Compare(a, b Standing) int {
	switch {
	case a.Total != b.Total:
		return b.Total - a.Total
	case a.Trio != b.Trio:
		return b.Trio - a.Trio
	case a.Prophecy != b.Prophecy:
		return b.Prophecy - a.Prophecy
	case a.Icky != b.Icky:
		return b.Icky - a.Icky
	}
	if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
		return c
	}
	return strings.Compare(a.PlayerID, b.PlayerID)
}

// Rank sorts a copy of standings and assigns competition ranks: a block of
// fully tied players shares the rank of its first member, and the next block
// resumes at its position (1, 1, 3). The input is not modified.
func Rank(standings []Standing) []Ranked {
	if len(standings) == 0 {
		return []Ranked{}
	}
	sorted := slices.Clone(standings)
	slices.SortStableFunc(sorted, Compare)

	out := make([]Ranked, len(sorted))
	blockStart := 0
	for i := range sorted {
		if i > 0 && !tiedWith(sorted[i], sorted[blockStart]) {
			markBlock(out[blockStart:i])
			blockStart = i
		}
		out[i] = Ranked{Standing: sorted[i], Rank: blockStart + 1}
	}
	markBlock(out[blockStart:])
	return out
}

func markBlock(block []Ranked) {
	if len(block) < 2 {
		return
	}
	for i := range block {
		block[i].IsTied = true
	}
}
