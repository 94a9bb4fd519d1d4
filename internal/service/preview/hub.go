package preview

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"foodcurator/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	broadcastBuffer = 16
	pongWait        = 60 * time.Second
	writeDeadline   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // zezwala na wszystkie źródła
}

// Frame is one annotated capture frame sent to viewers.
type Frame struct {
	Session  string `json:"session"`
	Dish     string `json:"dish"`
	Captured int    `json:"captured"`
	Target   int    `json:"target"`
	Image    string `json:"image"`
}

// NewFrame wraps a JPEG buffer for broadcasting.
func NewFrame(session, dish string, captured, target int, jpeg []byte) Frame {
	return Frame{
		Session:  session,
		Dish:     dish,
		Captured: captured,
		Target:   target,
		Image:    base64.StdEncoding.EncodeToString(jpeg),
	}
}

// HubService fans capture frames out to websocket viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	pongWait   time.Duration // viewer dropped after this long without a pong
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
		pongWait:   pongWait,
	}
}

// Run serves register, unregister and broadcast requests and pings viewers
// until ctx is done, then closes every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.send(message)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *HubService) pingPeriod() time.Duration {
	return h.pongWait * 9 / 10
}

// ping keeps idle viewers alive; their pong resets the read deadline.
func (h *HubService) ping() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	deadline := time.Now().Add(writeDeadline)
	for client := range h.clients {
		if err := client.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			h.logger.Warning("Ping failed, dropping viewer: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *HubService) send(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending frame: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a frame for all viewers. Frames are dropped, and false
// returned, when the queue is full so capture never waits on slow viewers.
func (h *HubService) Broadcast(frame Frame) bool {
	message, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Error encoding frame: %v", err)
		return false
	}

	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ViewerHandler upgrades viewer connections and keeps them registered until
// they disconnect.
func (h *HubService) ViewerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(h.pongWait))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(h.pongWait))
			return nil
		})

		h.Register(connection)
		defer h.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Serve runs the hub and an HTTP listener with the viewer endpoint at /ws
// until ctx is done.
func (h *HubService) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h.ViewerHandler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go h.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	h.logger.Info("Preview server running on ws://localhost:%d/ws", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
