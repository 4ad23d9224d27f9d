package livedata

import (
	"context"
	"net/http"
	"sync"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024
)

// PushSource reads snapshots from the backend's /ws/watchlist stream. A
// malformed frame is reported and skipped; a dropped connection is reported
// and ends delivery for this lifetime.
type PushSource struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
	Logger *logger.Logger
}

func NewPushSource(url string, header http.Header, log *logger.Logger) *PushSource {
	if log == nil {
		log = logger.NewLogger(nil, "PushSource")
	}
	return &PushSource{
		URL:    url,
		Header: header,
		Dialer: websocket.DefaultDialer,
		Logger: log,
	}
}

func (p *PushSource) Mode() string { return "push" }

// -----------------------------------------------------------------------------

// Start reports stream errors with sequence 0: they are never superseded by an
// earlier frame.
func (p *PushSource) Start(onSnapshot func(uint64, map[string]models.MTickerStat), onError func(uint64, error)) func() {
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu      sync.Mutex
		conn    *websocket.Conn
		stopped bool
	)

	go func() {
		c, _, err := p.Dialer.DialContext(ctx, p.URL, p.Header)
		if err != nil {
			if ctx.Err() == nil {
				onError(0, helpers.NewTransportError("watchlist stream dial failed", 0, err))
			}
			return
		}

		mu.Lock()
		if stopped {
			mu.Unlock()
			c.Close()
			return
		}
		conn = c
		mu.Unlock()

		p.Logger.Info("connected to %s", p.URL)
		go p.pingLoop(ctx, c)
		p.readLoop(ctx, c, onSnapshot, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			mu.Lock()
			stopped = true
			c := conn
			mu.Unlock()
			if c != nil {
				go p.closeConn(c)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func (p *PushSource) readLoop(ctx context.Context, c *websocket.Conn,
	onSnapshot func(uint64, map[string]models.MTickerStat), onError func(uint64, error)) {

	c.SetReadLimit(maxMessageSize)
	c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var seq uint64
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				onError(0, helpers.NewTransportError("watchlist stream closed", 0, err))
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(pongWait))

		stats, err := DecodeSnapshot(message)
		if err != nil {
			if ctx.Err() == nil {
				onError(0, err)
			}
			continue
		}
		seq++
		if ctx.Err() != nil {
			return
		}
		onSnapshot(seq, stats)
	}
}

// closeConn sends the close frame and drops the connection. It can wait up to
// writeWait on a stalled peer, so stop runs it in the background.
func (p *PushSource) closeConn(c *websocket.Conn) {
	c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.Close()
}

// -----------------------------------------------------------------------------

func (p *PushSource) pingLoop(ctx context.Context, c *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
