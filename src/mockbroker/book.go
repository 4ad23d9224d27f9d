package mockbroker

import (
	"errors"
	"sort"
	"sync"

	"watchlist-trader/src/models"
	"watchlist-trader/src/orders"

	"github.com/shopspring/decimal"
)

var (
	errUnknownSymbol = errors.New("symbol not in watchlist")
	errNoLevel       = errors.New("reference level unavailable")
	errCannotSize    = errors.New("cannot size order")
	errOrderNotFound = errors.New("order not found")
)

type bookOrder struct {
	id     int
	symbol string
	side   models.Side
	qty    int64
	limit  *float64
	status string
}

type position struct {
	qty  decimal.Decimal
	cost decimal.Decimal // signed qty * avg price
}

// placed is the POST /api/order response body.
type placed struct {
	OrderID    int      `json:"orderId"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Qty        int64    `json:"qty"`
	EntryPrice float64  `json:"entryPrice"`
	Stop       *float64 `json:"stop,omitempty"`
	Limit      *float64 `json:"limit,omitempty"`
}

// Book fills market entries at the current price immediately, parks a
// protective stop for each, and rests LIMIT orders.
type Book struct {
	market *Market
	sizer  *orders.RiskBudgetSizer

	mu        sync.Mutex
	nextID    int
	open      map[int]*bookOrder
	positions map[string]*position
}

func NewBook(market *Market, riskBudget float64) *Book {
	return &Book{
		market:    market,
		sizer:     orders.NewRiskBudgetSizer(riskBudget),
		nextID:    1,
		open:      make(map[int]*bookOrder),
		positions: make(map[string]*position),
	}
}

// -----------------------------------------------------------------------------

func (b *Book) Place(intent models.MOrderIntent) (placed, error) {
	stat, ok := b.market.Quote(intent.Symbol)
	if !ok {
		return placed{}, errUnknownSymbol
	}

	var level float64
	switch intent.Reference {
	case models.RefHOD:
		level = stat.HOD
	case models.RefLOD:
		level = stat.LOD
	case models.RefVWAP:
		level = stat.VWAP
	case models.RefCustom, models.RefLimit:
		if intent.CustomValue == nil {
			return placed{}, errNoLevel
		}
		level = *intent.CustomValue
	default:
		return placed{}, errNoLevel
	}

	var qty int64
	if intent.Quantity != nil && *intent.Quantity > 0 {
		qty = *intent.Quantity
	} else if qty, ok = b.sizer.Size(stat.Last, level); !ok {
		return placed{}, errCannotSize
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	resp := placed{Symbol: intent.Symbol, Side: string(intent.Side), Qty: qty}

	if intent.Reference == models.RefLimit {
		id := b.add(intent.Symbol, intent.Side, qty, &level, "Submitted")
		resp.OrderID = id
		resp.EntryPrice = level
		resp.Limit = &level
		return resp, nil
	}

	b.fill(intent.Symbol, intent.Side, qty, stat.Last)
	resp.OrderID = b.add(intent.Symbol, intent.Side, qty, nil, "Filled")
	delete(b.open, resp.OrderID)
	b.add(intent.Symbol, opposite(intent.Side), qty, nil, "PreSubmitted")
	resp.EntryPrice = stat.Last
	resp.Stop = &level
	return resp, nil
}

func (b *Book) add(symbol string, side models.Side, qty int64, limit *float64, status string) int {
	id := b.nextID
	b.nextID++
	b.open[id] = &bookOrder{id: id, symbol: symbol, side: side, qty: qty, limit: limit, status: status}
	return id
}

func (b *Book) fill(symbol string, side models.Side, qty int64, price float64) {
	p, ok := b.positions[symbol]
	if !ok {
		p = &position{}
		b.positions[symbol] = p
	}
	signed := decimal.NewFromInt(qty)
	if side == models.SideSell {
		signed = signed.Neg()
	}
	p.qty = p.qty.Add(signed)
	p.cost = p.cost.Add(signed.Mul(decimal.NewFromFloat(price)))
	if p.qty.IsZero() {
		p.cost = decimal.Zero
	}
}

func opposite(side models.Side) models.Side {
	if side == models.SideBuy {
		return models.SideSell
	}
	return models.SideBuy
}

// -----------------------------------------------------------------------------

func (b *Book) Cancel(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.open[id]; !ok {
		return errOrderNotFound
	}
	delete(b.open, id)
	return nil
}

// -----------------------------------------------------------------------------

// orderRow is one GET /api/orders entry; ids are integers on the wire.
type orderRow struct {
	OrderID int      `json:"orderId"`
	Symbol  string   `json:"symbol"`
	Side    string   `json:"side"`
	Qty     int64    `json:"qty"`
	Limit   *float64 `json:"limit"`
	Status  string   `json:"status"`
}

func (b *Book) Orders() []orderRow {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(b.open))
	for id := range b.open {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]orderRow, 0, len(ids))
	for _, id := range ids {
		o := b.open[id]
		out = append(out, orderRow{
			OrderID: o.id,
			Symbol:  o.symbol,
			Side:    string(o.side),
			Qty:     o.qty,
			Limit:   o.limit,
			Status:  o.status,
		})
	}
	return out
}

func (b *Book) Positions() []models.MPositionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbols := make([]string, 0, len(b.positions))
	for sym, p := range b.positions {
		if !p.qty.IsZero() {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	out := make([]models.MPositionRecord, 0, len(symbols))
	for _, sym := range symbols {
		p := b.positions[sym]
		avg := p.cost.Div(p.qty).Round(4).InexactFloat64()
		out = append(out, models.MPositionRecord{
			Symbol:   sym,
			Position: p.qty.InexactFloat64(),
			AvgCost:  &avg,
		})
	}
	return out
}
