// Package usage turns one batch of match results into rule statistic updates
package usage

import (
	"sort"
	"time"
)

// Delta is the update a rule gets for one batch
type Delta struct {
	IncrementBy int64
	LastUsedAt  time.Time
	// Matched counts the transactions the rule won, for reporting only
	Matched int
}

// ComputeDeltas folds per-transaction winners into one +1 per rule.
// matches[i] is the winning rule key for transaction i, "" for no match.
// at is the batch timestamp every touched rule receives
func ComputeDeltas(matches []string, at time.Time) map[string]Delta {
	out := map[string]Delta{}
	for _, key := range matches {
		if key == "" {
			continue
		}
		d, seen := out[key]
		if !seen {
			d = Delta{IncrementBy: 1, LastUsedAt: at}
		}
		d.Matched++
		out[key] = d
	}
	return out
}

// SortedKeys returns the keys of deltas in ascending order so writes lock rows in a stable order
func SortedKeys(deltas map[string]Delta) []string {
	keys := make([]string, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
