package orders

import (
	"watchlist-trader/src/models"
)

// Advise lists the actions the policy offers for symbol with their
// availability against the snapshot and the custom input.
func (r *Resolver) Advise(symbol string, snapshot *models.MWatchlistSnapshot, customValue *float64) []models.MOrderAction {
	stat, _ := snapshot.Stat(symbol)

	var actions []models.MOrderAction
	for _, ref := range models.References {
		for _, side := range []models.Side{models.SideBuy, models.SideSell} {
			if !r.allows(ref, side) {
				continue
			}

			var level *float64
			if ref.NeedsCustomValue() {
				level = customValue
			} else {
				level = statLevel(stat, ref)
			}

			a := models.MOrderAction{Reference: ref, Side: side, Level: level, Available: level != nil}
			if a.Available && stat.Price != nil && ref == models.RefCustom {
				a.Crossed = crossed(side, *stat.Price, *level)
			}
			actions = append(actions, a)
		}
	}
	return actions
}

// crossed reports a sell stop at or above the price, or a buy stop at or below it.
func crossed(side models.Side, price, level float64) bool {
	if side == models.SideSell {
		return price <= level
	}
	return price >= level
}
