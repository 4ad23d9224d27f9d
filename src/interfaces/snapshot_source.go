package interfaces

import "watchlist-trader/src/models"

// -----------------------------------------------------------------------------
// ISnapshotSource delivers whole watchlist snapshots, by push or by pull.
// -----------------------------------------------------------------------------

type ISnapshotSource interface {

	// Mode is "push" or "pull".
	Mode() string

	// -----------------------------------------------------------------------------

	// Start begins delivery. onSnapshot receives every decoded snapshot with a
	// sequence number assigned when the data was requested (pull) or received
	// (push). onError receives transport and decode failures, tagged with the
	// sequence of the failed request or 0 when the failure is not tied to one.
	// The returned stop function is idempotent and must not block on the
	// network. A request already in flight may still call back after stop
	// returns, so consumers must discard late deliveries.
	Start(onSnapshot func(seq uint64, stats map[string]models.MTickerStat), onError func(seq uint64, err error)) (stop func())
}

// SourceFactory builds a source for one subscription lifetime.
type SourceFactory func(symbols []string) ISnapshotSource
