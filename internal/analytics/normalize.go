package analytics

import (
	"sort"

	"CoinScope/internal/model"
)

// Normalize returns a copy of obs sorted ascending by timestamp, with every
// timestamp in UTC. The sort is stable, so same-day duplicates keep their
// input order.
func Normalize(obs []model.PriceObservation) []model.PriceObservation {
	out := make([]model.PriceObservation, len(obs))
	copy(out, obs)
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
