package orders

import (
	"github.com/shopspring/decimal"
)

// RiskBudgetSizer risks a fixed amount between the current price and the
// reference level: floor((budget / |price - level|) / lot) * lot.
type RiskBudgetSizer struct {
	Budget decimal.Decimal
	Lot    int64
}

func NewRiskBudgetSizer(budget float64) *RiskBudgetSizer {
	return &RiskBudgetSizer{Budget: decimal.NewFromFloat(budget), Lot: 10}
}

func (s *RiskBudgetSizer) Size(price, level float64) (int64, bool) {
	if !s.Budget.IsPositive() || s.Lot <= 0 {
		return 0, false
	}
	distance := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(level)).Abs()
	if distance.IsZero() {
		return 0, false
	}

	lot := decimal.NewFromInt(s.Lot)
	qty := s.Budget.Div(distance).Div(lot).Floor().Mul(lot)
	if !qty.IsPositive() {
		return 0, false
	}
	return qty.IntPart(), true
}
