package mockbroker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
	"watchlist-trader/src/server"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Broker
// -----------------------------------------------------------------------------

// Broker is a local stand-in for the trading backend. It serves the same
// REST and websocket contract with simulated quotes and an in-memory book.
type Broker struct {
	Config models.MMockBrokerConfig
	Logger *logger.Logger
	Market *Market
	Book   *Book
	Hub    *server.Hub
	engine *gin.Engine
}

func NewBroker(cfg models.MMockBrokerConfig, log *logger.Logger) *Broker {
	if log == nil {
		log = logger.NewLogger(nil, "MockBroker")
	}
	market := NewMarket(cfg.Seed)
	b := &Broker{
		Config: cfg,
		Logger: log,
		Market: market,
		Book:   NewBook(market, cfg.RiskBudget),
		Hub:    server.NewHub(log),
		engine: gin.New(),
	}
	b.engine.Use(gin.Recovery())
	b.setupRoutes()
	return b
}

// -----------------------------------------------------------------------------

func (b *Broker) setupRoutes() {
	api := b.engine.Group("/api")
	api.POST("/watchlist", b.postWatchlist)
	api.GET("/watchlist", b.getWatchlist)
	api.POST("/order", b.postOrder)
	api.DELETE("/order/:id", b.deleteOrder)
	api.GET("/orders", b.getOrders)
	api.GET("/positions", b.getPositions)

	b.engine.GET("/ws/watchlist", b.Hub.HandleWebSocket)
}

func (b *Broker) Handler() http.Handler {
	return b.engine
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Tick advances the market one step and pushes the new snapshot.
func (b *Broker) Tick() {
	b.Market.Step()
	b.Hub.Broadcast(b.Market.Snapshot())
}

// Run serves and ticks until ctx is done.
func (b *Broker) Run(ctx context.Context) error {
	go b.Hub.Run(ctx)

	tick := time.Duration(b.Config.TickMillis) * time.Millisecond
	if tick <= 0 {
		tick = time.Second
	}
	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Tick()
			}
		}
	}()

	addr := fmt.Sprintf("%s:%d", b.Config.Host, b.Config.Port)
	srv := &http.Server{Addr: addr, Handler: b.engine, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		b.Logger.Info("Mock broker listening on http://%s (tick %s)", addr, tick)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (b *Broker) postWatchlist(c *gin.Context) {
	var req models.MSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if len(req.Symbols) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "symbols must not be empty"})
		return
	}
	b.Market.SetWatchlist(req.Symbols)
	b.Logger.Info("watchlist %v (testMode=%v)", req.Symbols, req.TestMode)

	snap := b.Market.Snapshot()
	b.Hub.Broadcast(snap)
	c.JSON(http.StatusOK, snap)
}

// -----------------------------------------------------------------------------

func (b *Broker) getWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, b.Market.Snapshot())
}

// -----------------------------------------------------------------------------

func (b *Broker) postOrder(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var intent models.MOrderIntent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	resp, err := b.Book.Place(intent)
	if err != nil {
		b.Logger.Warning("order %s rejected: %v", requestID, err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	b.Logger.Info("order %s: %s %d %s @%s -> #%d", requestID, resp.Side, resp.Qty, resp.Symbol, intent.Reference, resp.OrderID)
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

func (b *Broker) deleteOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "order id must be an integer"})
		return
	}
	if err := b.Book.Cancel(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}

// -----------------------------------------------------------------------------

func (b *Broker) getOrders(c *gin.Context) {
	c.JSON(http.StatusOK, b.Book.Orders())
}

func (b *Broker) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, b.Book.Positions())
}
