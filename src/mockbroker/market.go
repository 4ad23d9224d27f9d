package mockbroker

import (
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// quote is the running session state for one symbol.
type quote struct {
	price  decimal.Decimal
	hod    decimal.Decimal
	lod    decimal.Decimal
	volume decimal.Decimal
	pv     decimal.Decimal // sum(price * volume)
}

// wireStat matches the backend payload, which names the price "last".
type wireStat struct {
	Last float64 `json:"last"`
	HOD  float64 `json:"hod"`
	LOD  float64 `json:"lod"`
	VWAP float64 `json:"vwap"`
}

// Market is a seeded random walk over the watched symbols.
type Market struct {
	mu      sync.Mutex
	rng     *rand.Rand
	symbols []string
	quotes  map[string]*quote
}

func NewMarket(seed int64) *Market {
	return &Market{
		rng:    rand.New(rand.NewSource(seed)),
		quotes: make(map[string]*quote),
	}
}

// -----------------------------------------------------------------------------

// SetWatchlist replaces the watched symbols. Known symbols keep their session.
func (m *Market) SetWatchlist(symbols []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.symbols = append([]string(nil), symbols...)
	for _, sym := range symbols {
		if _, ok := m.quotes[sym]; ok {
			continue
		}
		open := decimal.NewFromFloat(20 + m.rng.Float64()*480).Round(2)
		m.quotes[sym] = &quote{
			price:  open,
			hod:    open,
			lod:    open,
			volume: decimal.NewFromInt(100),
			pv:     open.Mul(decimal.NewFromInt(100)),
		}
	}
}

func (m *Market) Watching(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// Step moves every watched price by up to ±0.5% and trades a random volume.
func (m *Market) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sym := range m.symbols {
		q := m.quotes[sym]
		move := decimal.NewFromFloat((m.rng.Float64() - 0.5) / 100)
		next := q.price.Mul(decimal.NewFromInt(1).Add(move)).Round(2)
		if !next.IsPositive() {
			next = decimal.NewFromFloat(0.01)
		}
		vol := decimal.NewFromInt(int64(1 + m.rng.Intn(1000)))

		q.price = next
		q.hod = decimal.Max(q.hod, next)
		q.lod = decimal.Min(q.lod, next)
		q.volume = q.volume.Add(vol)
		q.pv = q.pv.Add(next.Mul(vol))
	}
}

// -----------------------------------------------------------------------------

// Snapshot returns the wire form of every watched symbol.
func (m *Market) Snapshot() map[string]wireStat {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]wireStat, len(m.symbols))
	for _, sym := range m.symbols {
		q := m.quotes[sym]
		out[sym] = wireStat{
			Last: q.price.InexactFloat64(),
			HOD:  q.hod.InexactFloat64(),
			LOD:  q.lod.InexactFloat64(),
			VWAP: q.pv.Div(q.volume).Round(2).InexactFloat64(),
		}
	}
	return out
}

// Quote returns the current stat for symbol.
func (m *Market) Quote(symbol string) (wireStat, bool) {
	snap := m.Snapshot()
	s, ok := snap[symbol]
	return s, ok
}

// SetQuote pins a symbol's session values, for tests and demos.
func (m *Market) SetQuote(symbol string, price, hod, lod, vwap float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vol := decimal.NewFromInt(100)
	m.quotes[symbol] = &quote{
		price:  decimal.NewFromFloat(price),
		hod:    decimal.NewFromFloat(hod),
		lod:    decimal.NewFromFloat(lod),
		volume: vol,
		pv:     decimal.NewFromFloat(vwap).Mul(vol),
	}
}
