package interfaces

import (
	"context"

	"watchlist-trader/src/models"
)

// -----------------------------------------------------------------------------
// IController is the surface the UI server and the control plane drive.
// -----------------------------------------------------------------------------

type IController interface {

	// View returns the current UI state.
	View() models.MView

	// -----------------------------------------------------------------------------

	// Subscribe parses text into a symbol set and subscribes to it. A nil
	// testMode defers to the configured setting.
	Subscribe(ctx context.Context, text string, testMode *bool) error

	// Unsubscribe tears the active watchlist down.
	Unsubscribe()

	// -----------------------------------------------------------------------------

	// SetCustomInput stores the custom stop/limit text for an active symbol.
	SetCustomInput(symbol, text string) error

	// -----------------------------------------------------------------------------

	// PlaceOrder resolves and submits one order action.
	PlaceOrder(ctx context.Context, req models.MOrderRequest) (models.MOrderConfirmation, error)

	// CancelOrder forwards a cancellation request.
	CancelOrder(ctx context.Context, orderID models.OrderID) error
}
