package interfaces

import (
	"context"

	"watchlist-trader/src/models"
)

// -----------------------------------------------------------------------------
// Brokerage backend contracts, split by consumer.
// -----------------------------------------------------------------------------

type IWatchlistBackend interface {

	// Subscribe registers the symbol set (POST /api/watchlist) and returns the
	// snapshot carried in the acknowledgement, empty when the body has none.
	Subscribe(ctx context.Context, req models.MSubscribeRequest) (map[string]models.MTickerStat, error)

	// -----------------------------------------------------------------------------

	// FetchSnapshot returns the current stats of the subscribed symbols (GET /api/watchlist).
	FetchSnapshot(ctx context.Context) (map[string]models.MTickerStat, error)
}

// -----------------------------------------------------------------------------

type IOrderBackend interface {

	// SubmitOrder sends exactly one order request. requestID goes out as X-Request-ID.
	SubmitOrder(ctx context.Context, requestID string, intent models.MOrderIntent) (models.MOrderConfirmation, error)

	// -----------------------------------------------------------------------------

	// CancelOrder asks the backend to cancel orderID. Any non-2xx is a failure.
	CancelOrder(ctx context.Context, orderID models.OrderID) error
}

// -----------------------------------------------------------------------------

type ILedgerBackend interface {
	ListOrders(ctx context.Context) ([]models.MOrderRecord, error)
	ListPositions(ctx context.Context) ([]models.MPositionRecord, error)
}

// -----------------------------------------------------------------------------

// IBackend is everything the client needs from the brokerage.
type IBackend interface {
	IWatchlistBackend
	IOrderBackend
	ILedgerBackend
}
