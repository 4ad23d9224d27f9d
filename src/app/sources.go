package app

import (
	"watchlist-trader/src/config"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/livedata"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/network"
)

// NewSourceFactory returns the configured snapshot source: a stream on the
// backend's /ws/watchlist or a poll of GET /api/watchlist.
func NewSourceFactory(cfg *config.Config, client *network.BackendClient) interfaces.SourceFactory {
	log := logger.NewLogger(cfg.MConfig, "LiveSource")

	if cfg.Sync.Mode == "pull" {
		return func(symbols []string) interfaces.ISnapshotSource {
			return livedata.NewPullSource(client, cfg.PullInterval(), cfg.RequestTimeout(), log)
		}
	}

	url := cfg.WatchlistStreamURL()
	return func(symbols []string) interfaces.ISnapshotSource {
		return livedata.NewPushSource(url, client.StreamHeader(), log)
	}
}
