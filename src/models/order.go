package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts BUY/SELL in any case.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	}
	return "", false
}

// Reference names the level an order is anchored to.
type Reference string

const (
	RefHOD    Reference = "HOD"
	RefLOD    Reference = "LOD"
	RefVWAP   Reference = "VWAP"
	RefCustom Reference = "CUSTOM"
	RefLimit  Reference = "LIMIT"
)

var References = []Reference{RefHOD, RefLOD, RefVWAP, RefCustom, RefLimit}

func ParseReference(s string) (Reference, bool) {
	r := Reference(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range References {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// NeedsCustomValue reports whether the reference is user supplied rather than a live stat.
func (r Reference) NeedsCustomValue() bool {
	return r == RefCustom || r == RefLimit
}

// -----------------------------------------------------------------------------
// Order intent and confirmation
// -----------------------------------------------------------------------------

// MOrderIntent is the payload sent to POST /api/order. Treat it as immutable
// once resolved.
type MOrderIntent struct {
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Reference   Reference `json:"reference"`
	CustomValue *float64  `json:"customValue,omitempty"`
	Quantity    *int64    `json:"quantity,omitempty"`
}

// OrderID is opaque. The backend may send it as a JSON string or number.
type OrderID string

func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = OrderID(n.String())
	return nil
}

// MOrderConfirmation is what the backend returns for an accepted order.
// Raw keeps the response body so it can be shown without reinterpretation.
type MOrderConfirmation struct {
	OrderID    OrderID         `json:"orderId"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Quantity   float64         `json:"quantity"`
	EntryPrice *float64        `json:"entryPrice,omitempty"`
	StopPrice  *float64        `json:"stopPrice,omitempty"`
	LimitPrice *float64        `json:"limitPrice,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

// UnmarshalJSON also understands the short field names (qty, limit, stop).
func (c *MOrderConfirmation) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderID    OrderID  `json:"orderId"`
		Symbol     string   `json:"symbol"`
		Side       Side     `json:"side"`
		Quantity   *float64 `json:"quantity"`
		Qty        *float64 `json:"qty"`
		EntryPrice *float64 `json:"entryPrice"`
		StopPrice  *float64 `json:"stopPrice"`
		Stop       *float64 `json:"stop"`
		LimitPrice *float64 `json:"limitPrice"`
		Limit      *float64 `json:"limit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = MOrderConfirmation{
		OrderID:    raw.OrderID,
		Symbol:     raw.Symbol,
		Side:       raw.Side,
		EntryPrice: raw.EntryPrice,
		StopPrice:  firstSet(raw.StopPrice, raw.Stop),
		LimitPrice: firstSet(raw.LimitPrice, raw.Limit),
		Raw:        append(json.RawMessage(nil), data...),
	}
	if q := firstSet(raw.Quantity, raw.Qty); q != nil {
		c.Quantity = *q
	}
	return nil
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Ledger records
// -----------------------------------------------------------------------------

type MOrderRecord struct {
	OrderID OrderID  `json:"orderId"`
	Symbol  string   `json:"symbol"`
	Side    Side     `json:"side"`
	Qty     float64  `json:"qty"`
	Limit   *float64 `json:"limit,omitempty"`
	Status  string   `json:"status"`
}

type MPositionRecord struct {
	Symbol   string   `json:"symbol"`
	Position float64  `json:"position"`
	AvgCost  *float64 `json:"avgCost,omitempty"`
}

// MJournalEntry is one audited order action.
type MJournalEntry struct {
	RequestID string
	Action    string // "submit" or "cancel"
	Symbol    string
	Side      Side
	Reference Reference
	Level     *float64
	Quantity  *int64
	OrderID   OrderID
	Success   bool
	Detail    string
	CreatedAt int64
}
