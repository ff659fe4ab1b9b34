package api

import (
	"net/http"
	"sync"
	"time"

	"FinEnrich/internal/domain/models"
	xlogger "FinEnrich/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is the envelope pushed to websocket clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RunEventsHub broadcasts run start and finish events to websocket clients.
type RunEventsHub struct {
	logger  *xlogger.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func NewRunEventsHub(logger *xlogger.Logger) *RunEventsHub {
	return &RunEventsHub{logger: logger, clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *RunEventsHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/runs", h.Serve)
}

// Serve upgrades the connection and blocks until the client goes away.
func (h *RunEventsHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", xlogger.Int("clients", n))

	defer h.remove(conn)

	// clients only listen; reading detects the close frame
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// OnRun implements usecase.RunObserver.
func (h *RunEventsHub) OnRun(s models.RunSummary) {
	h.Broadcast(WSMessage{Type: "run_" + string(s.Status), Payload: s})
}

// Broadcast writes msg to every client. Clients that fail are dropped.
func (h *RunEventsHub) Broadcast(msg WSMessage) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mu := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, mu)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		err := conn.WriteJSON(msg)
		locks[i].Unlock()
		if err != nil {
			h.logger.Warn("websocket write failed", xlogger.Error(err))
			h.remove(conn)
		}
	}
}

// Clients returns the number of connected clients.
func (h *RunEventsHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *RunEventsHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func (h *RunEventsHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}
