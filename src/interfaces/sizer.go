package interfaces

// -----------------------------------------------------------------------------
// ISizer computes an order quantity from the current price and the order's
// reference level. ok is false when no quantity should be sent.
// -----------------------------------------------------------------------------

type ISizer interface {
	Size(price, level float64) (qty int64, ok bool)
}
