package network

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.Handler) *BackendClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendClient(models.MBackendConfig{
		BaseURL:        srv.URL + "/",
		RequestTimeout: 5,
		UserAgent:      "watchlist-test",
	}, nil)
}

func TestSubscribeSendsSymbolsAndTestMode(t *testing.T) {
	var got models.MSubscribeRequest
	var ua string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/watchlist", func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"AAPL":{"last":1}}`))
	})
	c := newClient(t, mux)

	stats, err := c.Subscribe(context.Background(), models.MSubscribeRequest{Symbols: []string{"AAPL"}, TestMode: true})
	require.NoError(t, err)
	assert.Equal(t, models.MSubscribeRequest{Symbols: []string{"AAPL"}, TestMode: true}, got)
	assert.Equal(t, "watchlist-test", ua)
	require.Contains(t, stats, "AAPL")
	assert.Equal(t, 1.0, *stats["AAPL"].Price)
}

func TestSubscribeToleratesAckWithoutSnapshot(t *testing.T) {
	for _, body := range []string{"", "  \n", `{"ok": true}`, `accepted`} {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/watchlist", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		c := newClient(t, mux)

		stats, err := c.Subscribe(context.Background(), models.MSubscribeRequest{Symbols: []string{"AAPL"}})
		require.NoError(t, err, body)
		assert.NotNil(t, stats, body)
		assert.Empty(t, stats, body)
	}
}

func TestNon2xxIsTransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/watchlist", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"IB gateway not connected"}`))
	})
	c := newClient(t, mux)

	_, err := c.Subscribe(context.Background(), models.MSubscribeRequest{Symbols: []string{"AAPL"}})
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, err.Error(), "IB gateway not connected")
}

func TestConnectionFailureIsTransportError(t *testing.T) {
	c := NewBackendClient(models.MBackendConfig{BaseURL: "http://127.0.0.1:1", RequestTimeout: 1}, nil)
	_, err := c.FetchSnapshot(context.Background())
	status, ok := helpers.TransportStatus(err)
	require.True(t, ok)
	assert.Zero(t, status)
}

func TestFetchSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/watchlist", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"AAPL":{"last":190.5,"hod":191,"lod":null,"vwap":190}}`))
	})
	c := newClient(t, mux)

	stats, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 190.5, *stats["AAPL"].Price)
	assert.Nil(t, stats["AAPL"].LOD)
}

func TestSubmitOrder(t *testing.T) {
	body := `{"orderId":"1","quantity":10,"entryPrice":310,"stopPrice":309.5}`
	var sent map[string]interface{}
	var requestID string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/order", func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &sent))
		w.Write([]byte(body))
	})
	c := newClient(t, mux)

	conf, err := c.SubmitOrder(context.Background(), "req-1", models.MOrderIntent{
		Symbol: "TSLA", Side: models.SideSell, Reference: models.RefHOD,
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, map[string]interface{}{"symbol": "TSLA", "side": "SELL", "reference": "HOD"}, sent)
	assert.JSONEq(t, body, string(conf.Raw))
	assert.Equal(t, models.OrderID("1"), conf.OrderID)
}

func TestSubmitOrderMalformedResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/order", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	c := newClient(t, mux)

	_, err := c.SubmitOrder(context.Background(), "", models.MOrderIntent{Symbol: "TSLA"})
	var decodeErr *helpers.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestCancelOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/order/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "12" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Order not found"}`))
			return
		}
		w.Write([]byte(`{"cancelled":12}`))
	})
	c := newClient(t, mux)

	require.NoError(t, c.CancelOrder(context.Background(), "12"))

	err := c.CancelOrder(context.Background(), "13")
	status, _ := helpers.TransportStatus(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, err.Error(), "Order not found")
}

func TestListOrdersAndPositions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"orderId":5,"symbol":"AAPL","side":"BUY","qty":10,"limit":null,"status":"Submitted"}]`))
	})
	mux.HandleFunc("GET /api/positions", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"MSFT","position":-20,"avgCost":410.2}]`))
	})
	c := newClient(t, mux)

	orders, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderID("5"), orders[0].OrderID)
	assert.Nil(t, orders[0].Limit)

	positions, err := c.ListPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -20.0, positions[0].Position)
	assert.Equal(t, 410.2, *positions[0].AvgCost)
}

func TestRequestHonoursContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := newClient(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ListOrders(ctx)
	assert.Error(t, err)
}
