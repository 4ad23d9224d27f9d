package network

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/livedata"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

// BackendClient talks to the brokerage backend's REST API. Every call is a
// single attempt; non-2xx responses become TransportErrors with the status.
type BackendClient struct {
	client    *resty.Client
	userAgent string
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewBackendClient(cfg models.MBackendConfig, log *logger.Logger) *BackendClient {
	if log == nil {
		log = logger.NewLogger(nil, "Backend")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.RequestTimeout)*time.Second).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	return &BackendClient{client: client, userAgent: cfg.UserAgent, Logger: log}
}

// StreamHeader is the handshake header for the push stream.
func (c *BackendClient) StreamHeader() http.Header {
	h := http.Header{}
	if c.userAgent != "" {
		h.Set("User-Agent", c.userAgent)
	}
	return h
}

// -----------------------------------------------------------------------------

func (c *BackendClient) do(req *resty.Request, method, path string) (*resty.Response, error) {
	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, helpers.NewTransportError(fmt.Sprintf("%s %s failed", method, path), 0, err)
	}
	c.Logger.Debug("%s %s -> %d (%s)", method, path, resp.StatusCode(), time.Since(start).Round(time.Millisecond))

	if !resp.IsSuccess() {
		return resp, helpers.NewTransportError(
			fmt.Sprintf("%s %s returned %d: %s", method, path, resp.StatusCode(), errorDetail(resp.Body())),
			resp.StatusCode(), nil)
	}
	return resp, nil
}

// errorDetail extracts FastAPI-style {"detail": ...} messages, else the raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail interface{} `json:"detail"`
		Error  string      `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if s, ok := parsed.Detail.(string); ok && s != "" {
			return s
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "empty response"
	}
	return text
}

// -----------------------------------------------------------------------------
// Watchlist
// -----------------------------------------------------------------------------

// Subscribe treats the acknowledgement body as an optional first snapshot. A
// body that is empty or not a snapshot does not fail an accepted subscription.
func (c *BackendClient) Subscribe(ctx context.Context, req models.MSubscribeRequest) (map[string]models.MTickerStat, error) {
	resp, err := c.do(c.client.R().SetContext(ctx).SetBody(req), http.MethodPost, "/api/watchlist")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.Body())) == 0 {
		return map[string]models.MTickerStat{}, nil
	}
	stats, err := livedata.DecodeSnapshot(resp.Body())
	if err != nil {
		c.Logger.Warning("ignoring subscribe acknowledgement body: %v", err)
		return map[string]models.MTickerStat{}, nil
	}
	return stats, nil
}

func (c *BackendClient) FetchSnapshot(ctx context.Context) (map[string]models.MTickerStat, error) {
	resp, err := c.do(c.client.R().SetContext(ctx), http.MethodGet, "/api/watchlist")
	if err != nil {
		return nil, err
	}
	return livedata.DecodeSnapshot(resp.Body())
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func (c *BackendClient) SubmitOrder(ctx context.Context, requestID string, intent models.MOrderIntent) (models.MOrderConfirmation, error) {
	req := c.client.R().SetContext(ctx).SetBody(intent)
	if requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}
	resp, err := c.do(req, http.MethodPost, "/api/order")
	if err != nil {
		return models.MOrderConfirmation{}, err
	}

	var conf models.MOrderConfirmation
	if err := json.Unmarshal(resp.Body(), &conf); err != nil {
		return models.MOrderConfirmation{}, helpers.NewDecodeError("malformed order confirmation", err)
	}
	if len(bytes.TrimSpace(conf.Raw)) == 0 {
		conf.Raw = append([]byte(nil), resp.Body()...)
	}
	return conf, nil
}

func (c *BackendClient) CancelOrder(ctx context.Context, orderID models.OrderID) error {
	path := "/api/order/" + url.PathEscape(string(orderID))
	_, err := c.do(c.client.R().SetContext(ctx), http.MethodDelete, path)
	return err
}

// -----------------------------------------------------------------------------
// Ledger
// -----------------------------------------------------------------------------

func (c *BackendClient) ListOrders(ctx context.Context) ([]models.MOrderRecord, error) {
	var out []models.MOrderRecord
	if err := c.getJSON(ctx, "/api/orders", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BackendClient) ListPositions(ctx context.Context) ([]models.MPositionRecord, error) {
	var out []models.MPositionRecord
	if err := c.getJSON(ctx, "/api/positions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BackendClient) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(c.client.R().SetContext(ctx), http.MethodGet, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return helpers.NewDecodeError("malformed response from "+path, err)
	}
	return nil
}
