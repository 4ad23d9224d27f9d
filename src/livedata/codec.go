package livedata

import (
	"bytes"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"

	json "github.com/goccy/go-json"
)

// DecodeSnapshot parses a watchlist payload: an object keyed by symbol whose
// values carry price (or last), hod, lod and vwap. Missing or null fields stay absent.
func DecodeSnapshot(data []byte) (map[string]models.MTickerStat, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, helpers.NewDecodeError("watchlist payload is not a JSON object", nil)
	}

	var stats map[string]models.MTickerStat
	if err := json.Unmarshal(trimmed, &stats); err != nil {
		return nil, helpers.NewDecodeError("malformed watchlist payload", err)
	}
	if stats == nil {
		stats = make(map[string]models.MTickerStat)
	}
	return stats, nil
}
