package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// UIServer
// -----------------------------------------------------------------------------

// UIServer serves the local browser UI: a JSON API over the controller and a
// websocket that pushes the full view after every change.
type UIServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Controller interfaces.IController
	Hub        *Hub
	engine     *gin.Engine
	started    time.Time
	baseCtx    context.Context
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewUIServer(cfg *models.MConfig, controller interfaces.IController, log *logger.Logger) *UIServer {
	if strings.ToUpper(cfg.LogLevel) != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(cfg, "UIServer")
	}

	s := &UIServer{
		Config:     cfg,
		Logger:     log,
		Controller: controller,
		Hub:        NewHub(log),
		engine:     gin.New(),
		started:    time.Now(),
		baseCtx:    context.Background(),
	}
	s.Hub.OnMessage = s.handleClientMessage

	s.engine.Use(gin.Recovery(), corsMiddleware())
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *UIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/state", s.getState)

	api.POST("/watchlist", s.postWatchlist)
	api.DELETE("/watchlist", s.deleteWatchlist)
	api.PUT("/watchlist/inputs/:symbol", s.putCustomInput)

	api.POST("/order", s.postOrder)
	api.DELETE("/order/:id", s.deleteOrder)

	s.engine.GET("/ws", s.Hub.HandleWebSocket)
}

// Handler exposes the router, mostly for tests.
func (s *UIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until ctx is done, then shuts down gracefully.
func (s *UIServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.baseCtx = ctx
	go s.Hub.Run(ctx)
	s.Publish(s.Controller.View())

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting UI server on http://%s", addr)
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
		s.Logger.Info("Stopping UI server")
		return srv.Shutdown(shutdownCtx)
	}
}

// -----------------------------------------------------------------------------

func (s *UIServer) commandContext() context.Context {
	return s.baseCtx
}

// Publish pushes a view to every browser.
func (s *UIServer) Publish(view models.MView) {
	s.Hub.Broadcast(stateMessage{Type: "STATE", Data: view})
}

type stateMessage struct {
	Type string       `json:"type"`
	Data models.MView `json:"data"`
}
