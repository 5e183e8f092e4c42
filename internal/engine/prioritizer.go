package engine

import (
	"sort"

	"github.com/pulseboard/alert-intel/internal/model"
)

// Prioritize returns the alerts in canonical order: priority weight
// descending, then confidence-weighted severity descending, then
// timestamp descending, then id ascending. The input is not filtered
// or mutated; the returned slice is a new ordering of the same alerts.
//
// The output order is also the pinned traversal order for clustering,
// so the tie-breaks matter for reproducibility.
func Prioritize(alerts []*model.Alert) []*model.Alert {
	out := make([]*model.Alert, len(alerts))
	copy(out, alerts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
			return wa > wb
		}
		if ua, ub := a.Urgency(), b.Urgency(); ua != ub {
			return ua > ub
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})

	return out
}
