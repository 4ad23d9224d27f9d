package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"watchlist-trader/src/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub
// -----------------------------------------------------------------------------

type reply struct {
	client *Client
	data   []byte
}

// Hub fans encoded messages out to every connected websocket client. The
// latest message is replayed to clients as they connect.
type Hub struct {
	Logger *logger.Logger

	// OnMessage handles frames sent by a client. Optional.
	OnMessage func(c *Client, message []byte)

	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	direct     chan reply
	done       chan struct{}
	closeOnce  sync.Once
	count      atomic.Int64

	latest     []byte
	stateMutex sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewLogger(nil, "Hub")
	}
	return &Hub{
		Logger:  log,
		clients: make(map[*Client]struct{}),
		// Queue of 256 absorbs bursts without blocking producers
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan reply),
		done:       make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Run is the hub loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.closeOnce.Do(func() { close(h.done) })
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.count.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.count.Store(int64(len(h.clients)))
			h.stateMutex.RLock()
			if h.latest != nil {
				client.send <- h.latest
			}
			h.stateMutex.RUnlock()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int64(len(h.clients)))
			}

		case r := <-h.direct:
			if _, ok := h.clients[r.client]; ok {
				select {
				case r.client.send <- r.data:
				default:
				}
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.Logger.Warning("dropping slow websocket client")
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast encodes message once, keeps it as the latest state and queues it
// for every client. It never blocks: when the queue is full the message is
// only kept as latest.
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.Logger.Error("Failed to encode broadcast: %v", err)
		return
	}

	h.stateMutex.Lock()
	h.latest = data
	h.stateMutex.Unlock()

	select {
	case h.broadcast <- data:
	default:
		h.Logger.Warning("broadcast queue full, update kept as latest only")
	}
}

// Latest returns the last broadcast message, encoded.
func (h *Hub) Latest() []byte {
	h.stateMutex.RLock()
	defer h.stateMutex.RUnlock()
	return h.latest
}

func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

// HandleWebSocket upgrades the request and attaches the connection.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
