package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"watchlist-trader/src/config"
	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/livedata"
	"watchlist-trader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	mu       sync.Mutex
	stats    map[string]models.MTickerStat
	subs     []models.MSubscribeRequest
	intents  []models.MOrderIntent
	confirm  string
	orders   []models.MOrderRecord
	positions []models.MPositionRecord
}

func (b *stubBackend) Subscribe(ctx context.Context, req models.MSubscribeRequest) (map[string]models.MTickerStat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, req)
	return nil, nil
}

func (b *stubBackend) FetchSnapshot(ctx context.Context) (map[string]models.MTickerStat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]models.MTickerStat, len(b.stats))
	for k, v := range b.stats {
		out[k] = v
	}
	return out, nil
}

func (b *stubBackend) SubmitOrder(ctx context.Context, requestID string, intent models.MOrderIntent) (models.MOrderConfirmation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.intents = append(b.intents, intent)
	var conf models.MOrderConfirmation
	err := conf.UnmarshalJSON([]byte(b.confirm))
	return conf, err
}

func (b *stubBackend) CancelOrder(ctx context.Context, orderID models.OrderID) error {
	return helpers.NewTransportError("Order not found", 404, nil)
}

func (b *stubBackend) ListOrders(ctx context.Context) ([]models.MOrderRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orders, nil
}

func (b *stubBackend) ListPositions(ctx context.Context) ([]models.MPositionRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions, nil
}

func (b *stubBackend) sentIntents() []models.MOrderIntent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.MOrderIntent(nil), b.intents...)
}

// -----------------------------------------------------------------------------

func testConfig() *config.Config {
	cfg := &config.Config{MConfig: config.Defaults()}
	cfg.LogLevel = "error"
	cfg.Sync.Mode = "pull"
	cfg.Sync.PullIntervalSeconds = 1
	cfg.Ledger.PollIntervalSeconds = 1
	cfg.Backend.RequestTimeout = 2
	return cfg
}

func newTestController(t *testing.T, backend *stubBackend) *Controller {
	t.Helper()
	cfg := testConfig()
	sources := func(symbols []string) interfaces.ISnapshotSource {
		return livedata.NewPullSource(backend, cfg.PullInterval(), cfg.RequestTimeout(), nil)
	}
	c := NewController(cfg, backend, sources, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func tsla() map[string]models.MTickerStat {
	return map[string]models.MTickerStat{
		"TSLA": {Price: models.Float(300), HOD: models.Float(310), LOD: models.Float(290), VWAP: models.Float(301)},
		"AAPL": {Price: models.Float(190)},
	}
}

func waitForSnapshot(t *testing.T, c *Controller, symbol string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := c.View().Snapshot.Stat(symbol)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestSellAtHODSurfacesConfirmationVerbatim(t *testing.T) {
	backend := &stubBackend{
		stats:   tsla(),
		confirm: `{"orderId":"1","quantity":10,"entryPrice":310,"stopPrice":309.5}`,
	}
	c := newTestController(t, backend)
	ctx := context.Background()

	require.NoError(t, c.Subscribe(ctx, "tsla", nil))
	waitForSnapshot(t, c, "TSLA")

	conf, err := c.PlaceOrder(ctx, models.MOrderRequest{Symbol: "TSLA", Side: "SELL", Reference: "HOD"})
	require.NoError(t, err)
	assert.JSONEq(t, backend.confirm, string(conf.Raw))

	intents := backend.sentIntents()
	require.Len(t, intents, 1)
	assert.Equal(t, models.MOrderIntent{Symbol: "TSLA", Side: models.SideSell, Reference: models.RefHOD}, intents[0])

	view := c.View()
	assert.JSONEq(t, backend.confirm, string(view.LastOrder))
	assert.Empty(t, view.LastOrderError)
}

func TestSnapshotFilteredToActiveSymbols(t *testing.T) {
	c := newTestController(t, &stubBackend{stats: tsla()})
	require.NoError(t, c.Subscribe(context.Background(), "TSLA", nil))
	waitForSnapshot(t, c, "TSLA")

	_, ok := c.View().Snapshot.Stat("AAPL")
	assert.False(t, ok)
}

func TestPlaceOrderValidation(t *testing.T) {
	backend := &stubBackend{stats: tsla(), confirm: `{"orderId":1}`}
	c := newTestController(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Subscribe(ctx, "TSLA", nil))
	waitForSnapshot(t, c, "TSLA")

	cases := []models.MOrderRequest{
		{Symbol: "MSFT", Side: "SELL", Reference: "HOD"},
		{Symbol: "TSLA", Side: "HOLD", Reference: "HOD"},
		{Symbol: "TSLA", Side: "SELL", Reference: "OPEN"},
		{Symbol: "TSLA", Side: "BUY", Reference: "CUSTOM"},
		{Symbol: "TSLA", Side: "BUY", Reference: "HOD"},
	}
	for _, req := range cases {
		_, err := c.PlaceOrder(ctx, req)
		assert.True(t, helpers.IsValidation(err), "%+v: %v", req, err)
	}
	assert.Empty(t, backend.sentIntents())
	assert.NotEmpty(t, c.View().LastOrderError)
}

func TestCustomOrderUsesStoredInput(t *testing.T) {
	backend := &stubBackend{stats: tsla(), confirm: `{"orderId":2}`}
	c := newTestController(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Subscribe(ctx, "TSLA", nil))
	waitForSnapshot(t, c, "TSLA")

	require.NoError(t, c.SetCustomInput("tsla", "305.25"))
	_, err := c.PlaceOrder(ctx, models.MOrderRequest{Symbol: "TSLA", Side: "BUY", Reference: "CUSTOM"})
	require.NoError(t, err)

	intents := backend.sentIntents()
	require.Len(t, intents, 1)
	require.NotNil(t, intents[0].CustomValue)
	assert.Equal(t, 305.25, *intents[0].CustomValue)

	actions := c.View().Actions["TSLA"]
	var custom []models.MOrderAction
	for _, a := range actions {
		if a.Reference == models.RefCustom {
			custom = append(custom, a)
		}
	}
	require.NotEmpty(t, custom)
	for _, a := range custom {
		assert.True(t, a.Available)
	}
}

func TestUnsubscribeClearsView(t *testing.T) {
	c := newTestController(t, &stubBackend{stats: tsla()})
	require.NoError(t, c.Subscribe(context.Background(), "TSLA", nil))
	waitForSnapshot(t, c, "TSLA")

	c.Unsubscribe()
	view := c.View()
	assert.Equal(t, models.StateIdle, view.Subscription.State)
	assert.Nil(t, view.Snapshot)
	assert.False(t, view.Sync.Active)
	assert.False(t, c.Ledger.Running())
}

func TestViewsArePublished(t *testing.T) {
	c := newTestController(t, &stubBackend{stats: tsla()})

	var mu sync.Mutex
	var states []models.SubscriptionState
	c.OnView(func(v models.MView) {
		mu.Lock()
		states = append(states, v.Subscription.State)
		mu.Unlock()
	})

	require.NoError(t, c.Subscribe(context.Background(), "TSLA", nil))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) > 0 && states[len(states)-1] == models.StateSubscribed
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCancelSurfacesBackendError(t *testing.T) {
	c := newTestController(t, &stubBackend{stats: tsla()})
	err := c.CancelOrder(context.Background(), "99")
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Equal(t, 404, status)
}
