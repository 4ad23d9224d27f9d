package orders

import (
	"math"
	"strconv"
	"strings"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/models"
)

// SidePolicy decides which sides a reference may be traded on.
type SidePolicy string

const (
	// SidePolicyImplied sells at HOD and buys at LOD; the rest accept either side.
	SidePolicyImplied SidePolicy = "implied"
	// SidePolicyFree lets every reference be bought or sold.
	SidePolicyFree SidePolicy = "free"
)

// Resolver turns a user action into an order intent against the current
// snapshot. It never looks at price sanity; see Advise for that.
type Resolver struct {
	Policy SidePolicy
	Sizer  interfaces.ISizer // nil disables sizing
}

func NewResolver(policy SidePolicy, sizer interfaces.ISizer) *Resolver {
	if policy == "" {
		policy = SidePolicyImplied
	}
	return &Resolver{Policy: policy, Sizer: sizer}
}

// -----------------------------------------------------------------------------

// Resolve validates the action and builds the intent to submit.
func (r *Resolver) Resolve(symbol string, side models.Side, ref models.Reference,
	snapshot *models.MWatchlistSnapshot, customValue *float64) (models.MOrderIntent, error) {

	intent, _, err := r.resolve(symbol, side, ref, snapshot, customValue)
	return intent, err
}

func (r *Resolver) resolve(symbol string, side models.Side, ref models.Reference,
	snapshot *models.MWatchlistSnapshot, customValue *float64) (models.MOrderIntent, float64, error) {

	if symbol == "" {
		return models.MOrderIntent{}, 0, helpers.NewValidationError("symbol is required")
	}
	if side != models.SideBuy && side != models.SideSell {
		return models.MOrderIntent{}, 0, helpers.NewValidationError("side must be BUY or SELL, got %q", side)
	}
	if !r.allows(ref, side) {
		return models.MOrderIntent{}, 0, helpers.NewValidationError("%s orders must be %s", ref, impliedSide(ref))
	}

	stat, _ := snapshot.Stat(symbol)

	var level float64
	intent := models.MOrderIntent{Symbol: symbol, Side: side, Reference: ref}
	switch ref {
	case models.RefHOD, models.RefLOD, models.RefVWAP:
		v := statLevel(stat, ref)
		if v == nil {
			return models.MOrderIntent{}, 0, helpers.NewValidationError("%s is not available for %s", ref, symbol)
		}
		level = *v
	case models.RefCustom, models.RefLimit:
		if customValue == nil || math.IsNaN(*customValue) || math.IsInf(*customValue, 0) {
			return models.MOrderIntent{}, 0, helpers.NewValidationError("enter a valid %s price for %s", strings.ToLower(string(ref)), symbol)
		}
		level = *customValue
		intent.CustomValue = models.Float(level)
	default:
		return models.MOrderIntent{}, 0, helpers.NewValidationError("unknown reference %q", ref)
	}

	if r.Sizer != nil && stat.Price != nil {
		if qty, ok := r.Sizer.Size(*stat.Price, level); ok {
			intent.Quantity = &qty
		}
	}
	return intent, level, nil
}

// -----------------------------------------------------------------------------

func (r *Resolver) allows(ref models.Reference, side models.Side) bool {
	if r.Policy == SidePolicyFree {
		return true
	}
	implied := impliedSide(ref)
	return implied == "" || implied == side
}

func impliedSide(ref models.Reference) models.Side {
	switch ref {
	case models.RefHOD:
		return models.SideSell
	case models.RefLOD:
		return models.SideBuy
	}
	return ""
}

func statLevel(stat models.MTickerStat, ref models.Reference) *float64 {
	switch ref {
	case models.RefHOD:
		return stat.HOD
	case models.RefLOD:
		return stat.LOD
	case models.RefVWAP:
		return stat.VWAP
	}
	return nil
}

// -----------------------------------------------------------------------------

// ParseCustomValue converts the text typed into a custom price field.
func ParseCustomValue(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, helpers.NewValidationError("enter a custom price")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, helpers.NewValidationError("%q is not a valid price", text)
	}
	return v, nil
}
