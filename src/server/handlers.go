package server

import (
	"errors"
	"net/http"
	"time"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/models"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *UIServer) getHealth(c *gin.Context) {
	view := s.Controller.View()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"connections":  s.Hub.ClientCount(),
		"subscription": view.Subscription.State,
		"uptime":       time.Since(s.started).Round(time.Second).String(),
	})
}

// -----------------------------------------------------------------------------

func (s *UIServer) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.Controller.View())
}

// -----------------------------------------------------------------------------

type watchlistBody struct {
	Text     string `json:"text"`
	TestMode *bool  `json:"testMode"`
}

func (s *UIServer) postWatchlist(c *gin.Context) {
	var body watchlistBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, helpers.NewValidationError("invalid body: %v", err))
		return
	}
	if err := s.Controller.Subscribe(c.Request.Context(), body.Text, body.TestMode); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Controller.View().Subscription)
}

// -----------------------------------------------------------------------------

func (s *UIServer) deleteWatchlist(c *gin.Context) {
	s.Controller.Unsubscribe()
	c.JSON(http.StatusOK, s.Controller.View().Subscription)
}

// -----------------------------------------------------------------------------

type inputBody struct {
	Value string `json:"value"`
}

func (s *UIServer) putCustomInput(c *gin.Context) {
	var body inputBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, helpers.NewValidationError("invalid body: %v", err))
		return
	}
	if err := s.Controller.SetCustomInput(c.Param("symbol"), body.Value); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------

// postOrder relays the backend's confirmation body unchanged.
func (s *UIServer) postOrder(c *gin.Context) {
	var req models.MOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, helpers.NewValidationError("invalid body: %v", err))
		return
	}
	conf, err := s.Controller.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(conf.Raw) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", conf.Raw)
		return
	}
	c.JSON(http.StatusOK, conf)
}

// -----------------------------------------------------------------------------

func (s *UIServer) deleteOrder(c *gin.Context) {
	id := models.OrderID(c.Param("id"))
	if err := s.Controller.CancelOrder(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": id, "status": "cancel requested"})
}

// -----------------------------------------------------------------------------
// Error mapping
// -----------------------------------------------------------------------------

// statusFor maps domain errors onto HTTP statuses. A backend 404 passes
// through; every other backend failure is a bad gateway.
func statusFor(err error) int {
	var decodeErr *helpers.DecodeError
	switch {
	case helpers.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, helpers.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway
	}
	if status, ok := helpers.TransportStatus(err); ok {
		if status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"detail": err.Error()})
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

type clientCommand struct {
	Command  string `json:"command"`
	Text     string `json:"text,omitempty"`
	TestMode *bool  `json:"testMode,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Value    string `json:"value,omitempty"`
}

type commandResult struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Error   string `json:"error,omitempty"`
}

// handleClientMessage runs browser commands sent over the websocket. Results
// come back as a RESULT message; state changes arrive through the broadcast.
func (s *UIServer) handleClientMessage(client *Client, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		client.Reply(commandResult{Type: "RESULT", Error: "malformed command"})
		return
	}

	var err error
	switch cmd.Command {
	case "subscribe":
		// Runs detached from the read loop so pings keep flowing.
		go func() {
			err := s.Controller.Subscribe(s.commandContext(), cmd.Text, cmd.TestMode)
			client.Reply(resultFor(cmd.Command, err))
		}()
		return
	case "unsubscribe":
		s.Controller.Unsubscribe()
	case "input":
		err = s.Controller.SetCustomInput(cmd.Symbol, cmd.Value)
	default:
		err = helpers.NewValidationError("unknown command %q", cmd.Command)
	}
	client.Reply(resultFor(cmd.Command, err))
}

func resultFor(command string, err error) commandResult {
	res := commandResult{Type: "RESULT", Command: command}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
