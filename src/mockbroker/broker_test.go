package mockbroker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"
	"watchlist-trader/src/network"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *network.BackendClient, *httptest.Server) {
	t.Helper()
	b := NewBroker(models.MMockBrokerConfig{Seed: 7, TickMillis: 1000, RiskBudget: 100}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go b.Hub.Run(ctx)
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	client := network.NewBackendClient(models.MBackendConfig{BaseURL: srv.URL, RequestTimeout: 5}, nil)
	return b, client, srv
}

func TestSubscribeAndFetchSnapshot(t *testing.T) {
	b, client, _ := newTestBroker(t)
	ctx := context.Background()

	ack, err := client.Subscribe(ctx, models.MSubscribeRequest{Symbols: []string{"TSLA", "AAPL"}})
	require.NoError(t, err)
	require.Len(t, ack, 2)
	for _, sym := range []string{"TSLA", "AAPL"} {
		require.NotNil(t, ack[sym].Price, sym)
	}
	b.Tick()

	stats, err := client.FetchSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, sym := range []string{"TSLA", "AAPL"} {
		st := stats[sym]
		require.NotNil(t, st.Price, sym)
		require.NotNil(t, st.HOD, sym)
		require.NotNil(t, st.LOD, sym)
		require.NotNil(t, st.VWAP, sym)
		assert.GreaterOrEqual(t, *st.HOD, *st.Price)
		assert.LessOrEqual(t, *st.LOD, *st.Price)
	}
}

func TestSubscribeRejectsEmptySymbols(t *testing.T) {
	_, client, _ := newTestBroker(t)
	_, err := client.Subscribe(context.Background(), models.MSubscribeRequest{Symbols: []string{}})
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestSeededMarketIsDeterministic(t *testing.T) {
	a, b := NewMarket(42), NewMarket(42)
	for _, m := range []*Market{a, b} {
		m.SetWatchlist([]string{"MSFT"})
		for i := 0; i < 20; i++ {
			m.Step()
		}
	}
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestMarketOrderFillsAndParksStop(t *testing.T) {
	b, client, _ := newTestBroker(t)
	ctx := context.Background()
	_, err := client.Subscribe(ctx, models.MSubscribeRequest{Symbols: []string{"TSLA"}})
	require.NoError(t, err)
	b.Market.SetQuote("TSLA", 300, 310, 290, 301)

	conf, err := client.SubmitOrder(ctx, "req-1", models.MOrderIntent{
		Symbol: "TSLA", Side: models.SideSell, Reference: models.RefHOD,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderID("1"), conf.OrderID)
	assert.Equal(t, float64(10), conf.Quantity)
	require.NotNil(t, conf.EntryPrice)
	assert.Equal(t, 300.0, *conf.EntryPrice)
	require.NotNil(t, conf.StopPrice)
	assert.Equal(t, 310.0, *conf.StopPrice)

	open, err := client.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, models.OrderID("2"), open[0].OrderID)
	assert.Equal(t, models.SideBuy, open[0].Side)
	assert.Equal(t, "PreSubmitted", open[0].Status)

	positions, err := client.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, -10.0, positions[0].Position)
	require.NotNil(t, positions[0].AvgCost)
	assert.Equal(t, 300.0, *positions[0].AvgCost)
}

func TestLimitOrderRestsAndCancels(t *testing.T) {
	b, client, _ := newTestBroker(t)
	ctx := context.Background()
	_, err := client.Subscribe(ctx, models.MSubscribeRequest{Symbols: []string{"TSLA"}})
	require.NoError(t, err)
	b.Market.SetQuote("TSLA", 300, 310, 290, 301)

	qty := int64(5)
	conf, err := client.SubmitOrder(ctx, "", models.MOrderIntent{
		Symbol: "TSLA", Side: models.SideBuy, Reference: models.RefLimit,
		CustomValue: models.Float(295), Quantity: &qty,
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, conf.Quantity)
	require.NotNil(t, conf.LimitPrice)
	assert.Equal(t, 295.0, *conf.LimitPrice)

	open, err := client.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].Limit)
	assert.Equal(t, "Submitted", open[0].Status)

	require.NoError(t, client.CancelOrder(ctx, conf.OrderID))
	open, err = client.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	positions, err := client.ListPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestCancelUnknownOrderIsNotFound(t *testing.T) {
	_, client, _ := newTestBroker(t)

	err := client.CancelOrder(context.Background(), "99")
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, err.Error(), "Order not found")
}

func TestOrderRejectedWhenUnsizable(t *testing.T) {
	b, client, _ := newTestBroker(t)
	ctx := context.Background()
	_, err := client.Subscribe(ctx, models.MSubscribeRequest{Symbols: []string{"TSLA"}})
	require.NoError(t, err)
	b.Market.SetQuote("TSLA", 300, 300, 290, 301)

	_, err = client.SubmitOrder(ctx, "", models.MOrderIntent{Symbol: "TSLA", Side: models.SideSell, Reference: models.RefHOD})
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "cannot size order")
}

func TestStreamPushesTicks(t *testing.T) {
	b, client, srv := newTestBroker(t)
	_, err := client.Subscribe(context.Background(), models.MSubscribeRequest{Symbols: []string{"NVDA"}})
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/watchlist"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// latest snapshot on connect
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first map[string]map[string]float64
	require.NoError(t, conn.ReadJSON(&first))
	assert.Contains(t, first, "NVDA")
	assert.Contains(t, first["NVDA"], "last")

	require.Eventually(t, func() bool { return b.Hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	b.Tick()
	var next map[string]map[string]float64
	require.NoError(t, conn.ReadJSON(&next))
	assert.Contains(t, next, "NVDA")
}
