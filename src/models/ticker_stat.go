package models

import (
	"encoding/json"
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Live statistics
// -----------------------------------------------------------------------------

// MTickerStat holds the intraday statistics reported for one symbol.
// A nil field means the backend did not report it; it is never zero-filled.
type MTickerStat struct {
	Price *float64 `json:"price,omitempty"`
	HOD   *float64 `json:"hod,omitempty"`
	LOD   *float64 `json:"lod,omitempty"`
	VWAP  *float64 `json:"vwap,omitempty"`
}

// UnmarshalJSON accepts "last" as an alias of "price" and drops non-finite values.
func (s *MTickerStat) UnmarshalJSON(data []byte) error {
	var raw struct {
		Price *float64 `json:"price"`
		Last  *float64 `json:"last"`
		HOD   *float64 `json:"hod"`
		LOD   *float64 `json:"lod"`
		VWAP  *float64 `json:"vwap"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	price := finite(raw.Price)
	if price == nil {
		price = finite(raw.Last)
	}
	*s = MTickerStat{
		Price: price,
		HOD:   finite(raw.HOD),
		LOD:   finite(raw.LOD),
		VWAP:  finite(raw.VWAP),
	}
	return nil
}

// -----------------------------------------------------------------------------

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// Float returns a pointer to v, for building stats in code.
func Float(v float64) *float64 {
	return &v
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// MWatchlistSnapshot is the most recent full set of stats. It is always replaced
// as a whole, never merged.
type MWatchlistSnapshot struct {
	Seq        uint64                 `json:"seq"`
	Stats      map[string]MTickerStat `json:"stats"`
	ReceivedAt time.Time              `json:"receivedAt"`
}

// Stat returns the stats for symbol, if the snapshot holds any.
func (s *MWatchlistSnapshot) Stat(symbol string) (MTickerStat, bool) {
	if s == nil || s.Stats == nil {
		return MTickerStat{}, false
	}
	st, ok := s.Stats[symbol]
	return st, ok
}
