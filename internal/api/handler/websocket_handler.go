package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketManager fans out lot availability changes to connected clients.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	mutex      sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
	}
}

func (wsm *WebSocketManager) Start() {
	for {
		select {
		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			wsm.mutex.Unlock()
			log.Printf("WebSocket client connected. Total: %d", len(wsm.clients))

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			wsm.mutex.Unlock()
			log.Printf("WebSocket client disconnected. Total: %d", len(wsm.clients))

		case message := <-wsm.broadcast:
			wsm.mutex.RLock()
			for client := range wsm.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					log.Printf("Error writing to WebSocket client: %v", err)
					client.Close()
					delete(wsm.clients, client)
				}
			}
			wsm.mutex.RUnlock()
		}
	}
}

// NotifyAvailability implements service.AvailabilityNotifier: every counter
// change on a lot is pushed to all connected clients.
func (wsm *WebSocketManager) NotifyAvailability(lotID, availableSlots, totalSlots int) {
	message, err := json.Marshal(domain.LotAvailabilityNotification{
		LotID:          lotID,
		AvailableSlots: availableSlots,
		TotalSlots:     totalSlots,
	})
	if err != nil {
		log.Printf("Error marshaling availability notification: %v", err)
		return
	}

	select {
	case wsm.broadcast <- message:
	default:
		log.Println("Broadcast channel is full, dropping message")
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	h.wsManager.register <- conn

	go func() {
		defer func() {
			h.wsManager.unregister <- conn
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				break
			}
		}
	}()
}
