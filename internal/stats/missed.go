package stats

import (
	"sort"

	"github.com/verte-zerg/typeclock/internal/analytics"
)

// MissedWord counts how often a target word was typed wrong.
type MissedWord struct {
	Word   string
	Misses int
	Seen   int
}

// TopMissedWords returns the n target words with the most incorrect attempts
// across results. Ties are broken alphabetically.
func TopMissedWords(results []analytics.StoredResult, n int) []MissedWord {
	if n <= 0 || len(results) == 0 {
		return nil
	}
	byWord := map[string]*MissedWord{}
	for _, r := range results {
		for _, a := range r.Attempts {
			mw, ok := byWord[a.Target]
			if !ok {
				mw = &MissedWord{Word: a.Target}
				byWord[a.Target] = mw
			}
			mw.Seen++
			if !a.Correct {
				mw.Misses++
			}
		}
	}
	items := make([]MissedWord, 0, len(byWord))
	for _, mw := range byWord {
		if mw.Misses > 0 {
			items = append(items, *mw)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Misses == items[j].Misses {
			return items[i].Word < items[j].Word
		}
		return items[i].Misses > items[j].Misses
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
