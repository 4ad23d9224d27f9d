package utils

import (
	"strings"
	"time"

	"watchlist-trader/src/logger"
)

// MarketHours decides the backend's testMode flag from the configured
// setting: "true", "false" or "auto" (test mode whenever none of the
// watchlist's exchanges is open).
type MarketHours struct {
	Setting string
	Logger  *logger.Logger
	Now     func() time.Time
}

func NewMarketHours(setting string, l *logger.Logger) *MarketHours {
	return &MarketHours{Setting: strings.ToLower(setting), Logger: l, Now: time.Now}
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks whether any of the symbols' exchanges is open now.
func (mh *MarketHours) AnyMarketOpen(symbols []string) bool {
	now := mh.Now().UTC()
	seen := make(map[string]bool)
	for _, symbol := range symbols {
		cal := GetCalendar(symbol)
		if seen[cal.MIC] {
			continue
		}
		seen[cal.MIC] = true
		if cal.IsOpen(now) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// TestMode resolves the flag for a subscription of symbols.
func (mh *MarketHours) TestMode(symbols []string) bool {
	switch mh.Setting {
	case "true":
		return true
	case "auto":
		open := mh.AnyMarketOpen(symbols)
		if mh.Logger != nil {
			mh.Logger.Debug("market open for %v: %t", symbols, open)
		}
		return !open
	}
	return false
}
