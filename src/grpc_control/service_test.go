package grpc_control

import (
	"context"
	"net"
	"sync"
	"testing"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubController struct {
	mu    sync.Mutex
	state models.SubscriptionState
	syms  []string
	err   error
}

func (c *stubController) View() models.MView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.MView{
		Subscription: models.MSubscriptionStatus{Seq: 3, State: c.state, Symbols: c.syms},
		Sync:         models.MSyncStatus{Mode: "push", Active: c.state == models.StateSubscribed},
		Orders:       []models.MOrderRecord{{OrderID: "7"}},
	}
}

func (c *stubController) Subscribe(ctx context.Context, text string, testMode *bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.state = models.StateSubscribed
	c.syms = []string{text}
	return nil
}

func (c *stubController) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.StateIdle
	c.syms = nil
}

func (c *stubController) SetCustomInput(symbol, text string) error { return nil }

func (c *stubController) PlaceOrder(ctx context.Context, req models.MOrderRequest) (models.MOrderConfirmation, error) {
	return models.MOrderConfirmation{}, nil
}

func (c *stubController) CancelOrder(ctx context.Context, orderID models.OrderID) error { return nil }

// -----------------------------------------------------------------------------

func dial(t *testing.T, ctrl *stubController) *ControlClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterControlServer(srv, NewControlService(ctrl, nil))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewControlClient(conn)
}

func TestSubscribeRoundTrip(t *testing.T) {
	client := dial(t, &stubController{state: models.StateIdle})
	ctx := context.Background()

	out, err := client.Subscribe(ctx, "TSLA")
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "subscribed", m["state"])
	assert.Equal(t, []interface{}{"TSLA"}, m["symbols"])
	assert.Equal(t, float64(1), m["openOrders"])
	assert.Equal(t, true, m["syncActive"])

	out, err = client.Unsubscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", out.AsMap()["state"])

	out, err = client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(3), out.AsMap()["seq"])
}

func TestSubscribeErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{helpers.NewValidationError("enter at least one symbol"), codes.InvalidArgument},
		{helpers.ErrSuperseded, codes.Aborted},
		{helpers.NewTransportError("down", 503, nil), codes.Unavailable},
	}
	for _, tc := range cases {
		client := dial(t, &stubController{err: tc.err})
		_, err := client.Subscribe(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, tc.code, status.Code(err), tc.err.Error())
	}
}
