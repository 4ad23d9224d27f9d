package livedata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
)

// PullSource polls GET /api/watchlist on a fixed interval, starting with an
// immediate request. Requests are not serialized: each one carries the
// sequence number it was issued with so the consumer can drop late responses.
type PullSource struct {
	Backend  interfaces.IWatchlistBackend
	Interval time.Duration
	Timeout  time.Duration
	Logger   *logger.Logger
}

func NewPullSource(backend interfaces.IWatchlistBackend, interval, timeout time.Duration, log *logger.Logger) *PullSource {
	if log == nil {
		log = logger.NewLogger(nil, "PullSource")
	}
	return &PullSource{Backend: backend, Interval: interval, Timeout: timeout, Logger: log}
}

func (p *PullSource) Mode() string { return "pull" }

// -----------------------------------------------------------------------------

func (p *PullSource) Start(onSnapshot func(uint64, map[string]models.MTickerStat), onError func(uint64, error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var seq atomic.Uint64

	fetch := func() {
		n := seq.Add(1)
		go func() {
			reqCtx := ctx
			if p.Timeout > 0 {
				var c context.CancelFunc
				reqCtx, c = context.WithTimeout(ctx, p.Timeout)
				defer c()
			}
			stats, err := p.Backend.FetchSnapshot(reqCtx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(n, err)
				return
			}
			onSnapshot(n, stats)
		}()
	}

	go func() {
		fetch()
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetch()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			p.Logger.Debug("pull source stopped after %d request(s)", seq.Load())
		})
	}
}
