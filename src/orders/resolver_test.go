package orders

import (
	"math"
	"testing"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tslaSnapshot() *models.MWatchlistSnapshot {
	return &models.MWatchlistSnapshot{
		Seq: 1,
		Stats: map[string]models.MTickerStat{
			"TSLA": {Price: models.Float(300), HOD: models.Float(310), LOD: models.Float(290), VWAP: models.Float(301)},
			"NVDA": {Price: models.Float(120)},
		},
	}
}

func TestResolveSellAtHOD(t *testing.T) {
	r := NewResolver(SidePolicyImplied, nil)
	intent, err := r.Resolve("TSLA", models.SideSell, models.RefHOD, tslaSnapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.MOrderIntent{Symbol: "TSLA", Side: models.SideSell, Reference: models.RefHOD}, intent)
}

func TestResolveRequiresStat(t *testing.T) {
	r := NewResolver(SidePolicyFree, nil)
	for _, ref := range []models.Reference{models.RefHOD, models.RefLOD, models.RefVWAP} {
		_, err := r.Resolve("NVDA", models.SideBuy, ref, tslaSnapshot(), nil)
		assert.True(t, helpers.IsValidation(err), ref)
	}

	_, err := r.Resolve("TSLA", models.SideBuy, models.RefVWAP, nil, nil)
	assert.True(t, helpers.IsValidation(err))
}

func TestResolveCustomValue(t *testing.T) {
	r := NewResolver(SidePolicyImplied, nil)

	for _, bad := range []*float64{nil, models.Float(math.NaN()), models.Float(math.Inf(1))} {
		_, err := r.Resolve("TSLA", models.SideBuy, models.RefCustom, tslaSnapshot(), bad)
		assert.True(t, helpers.IsValidation(err))
	}

	intent, err := r.Resolve("TSLA", models.SideBuy, models.RefLimit, tslaSnapshot(), models.Float(295.5))
	require.NoError(t, err)
	require.NotNil(t, intent.CustomValue)
	assert.Equal(t, 295.5, *intent.CustomValue)

	// Custom values do not need a snapshot.
	_, err = r.Resolve("AMD", models.SideSell, models.RefCustom, nil, models.Float(100))
	assert.NoError(t, err)
}

func TestSidePolicy(t *testing.T) {
	implied := NewResolver("", nil)
	assert.Equal(t, SidePolicyImplied, implied.Policy)

	_, err := implied.Resolve("TSLA", models.SideBuy, models.RefHOD, tslaSnapshot(), nil)
	assert.True(t, helpers.IsValidation(err))
	_, err = implied.Resolve("TSLA", models.SideSell, models.RefLOD, tslaSnapshot(), nil)
	assert.True(t, helpers.IsValidation(err))
	_, err = implied.Resolve("TSLA", models.SideSell, models.RefVWAP, tslaSnapshot(), nil)
	assert.NoError(t, err)

	free := NewResolver(SidePolicyFree, nil)
	_, err = free.Resolve("TSLA", models.SideBuy, models.RefHOD, tslaSnapshot(), nil)
	assert.NoError(t, err)
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := NewResolver(SidePolicyFree, nil)
	_, err := r.Resolve("", models.SideBuy, models.RefCustom, nil, models.Float(1))
	assert.True(t, helpers.IsValidation(err))
	_, err = r.Resolve("TSLA", models.Side("HOLD"), models.RefCustom, nil, models.Float(1))
	assert.True(t, helpers.IsValidation(err))
	_, err = r.Resolve("TSLA", models.SideBuy, models.Reference("OPEN"), tslaSnapshot(), nil)
	assert.True(t, helpers.IsValidation(err))
}

func TestResolveWithSizer(t *testing.T) {
	r := NewResolver(SidePolicyImplied, NewRiskBudgetSizer(100))

	intent, err := r.Resolve("TSLA", models.SideSell, models.RefHOD, tslaSnapshot(), nil)
	require.NoError(t, err)
	require.NotNil(t, intent.Quantity)
	assert.Equal(t, int64(10), *intent.Quantity)

	// No price, no quantity.
	intent, err = r.Resolve("AMD", models.SideBuy, models.RefCustom, nil, models.Float(50))
	require.NoError(t, err)
	assert.Nil(t, intent.Quantity)
}

func TestParseCustomValue(t *testing.T) {
	v, err := ParseCustomValue(" 101.25 ")
	require.NoError(t, err)
	assert.Equal(t, 101.25, v)

	for _, bad := range []string{"", "  ", "abc", "NaN", "inf", "1,5"} {
		_, err := ParseCustomValue(bad)
		assert.True(t, helpers.IsValidation(err), bad)
	}
}

// -----------------------------------------------------------------------------

func findAction(actions []models.MOrderAction, ref models.Reference, side models.Side) (models.MOrderAction, bool) {
	for _, a := range actions {
		if a.Reference == ref && a.Side == side {
			return a, true
		}
	}
	return models.MOrderAction{}, false
}

func TestAdviseImpliedPolicy(t *testing.T) {
	r := NewResolver(SidePolicyImplied, nil)
	actions := r.Advise("TSLA", tslaSnapshot(), nil)

	_, ok := findAction(actions, models.RefHOD, models.SideBuy)
	assert.False(t, ok)

	hod, ok := findAction(actions, models.RefHOD, models.SideSell)
	require.True(t, ok)
	assert.True(t, hod.Available)
	assert.Equal(t, 310.0, *hod.Level)

	custom, ok := findAction(actions, models.RefCustom, models.SideBuy)
	require.True(t, ok)
	assert.False(t, custom.Available)
}

func TestAdviseCrossedCustomStops(t *testing.T) {
	r := NewResolver(SidePolicyFree, nil)

	actions := r.Advise("TSLA", tslaSnapshot(), models.Float(305))
	sell, _ := findAction(actions, models.RefCustom, models.SideSell)
	buy, _ := findAction(actions, models.RefCustom, models.SideBuy)
	assert.True(t, sell.Crossed)
	assert.False(t, buy.Crossed)

	actions = r.Advise("TSLA", tslaSnapshot(), models.Float(295))
	sell, _ = findAction(actions, models.RefCustom, models.SideSell)
	buy, _ = findAction(actions, models.RefCustom, models.SideBuy)
	assert.False(t, sell.Crossed)
	assert.True(t, buy.Crossed)

	limit, _ := findAction(actions, models.RefLimit, models.SideBuy)
	assert.True(t, limit.Available)
	assert.False(t, limit.Crossed)
}
