package ws

import (
	"context"
	"encoding/json"
	"sync"

	"seribro_backend/internal/logger"
)

// Envelope - формат всех серверных сообщений
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

const EventNotification = "notification"

// WebSocketManager держит соединения по userID. У одного пользователя
// может быть несколько вкладок.
type WebSocketManager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обслуживает регистрацию клиентов до отмены ctx
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			if manager.clients[client.UserID] == nil {
				manager.clients[client.UserID] = make(map[*Client]bool)
			}
			manager.clients[client.UserID][client] = true
			manager.mu.Unlock()
			logger.Debug("WebSocket client registered", "user_id", client.UserID, "total", manager.GetClientCount())

		case client := <-manager.unregister:
			manager.remove(client)

		case <-ctx.Done():
			manager.mu.Lock()
			for userID, conns := range manager.clients {
				for client := range conns {
					close(client.Send)
				}
				delete(manager.clients, userID)
			}
			manager.mu.Unlock()
			logger.Info("WebSocket manager stopped")
			return
		}
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	conns, ok := manager.clients[client.UserID]
	if !ok || !conns[client] {
		return
	}
	close(client.Send)
	delete(conns, client)
	if len(conns) == 0 {
		delete(manager.clients, client.UserID)
	}
	logger.Debug("WebSocket client unregistered", "user_id", client.UserID)
}

// SendToUser - push во все соединения пользователя. Не блокирует:
// клиент с переполненной очередью отключается.
func (manager *WebSocketManager) SendToUser(userID string, payload interface{}) {
	msg, err := json.Marshal(Envelope{Type: EventNotification, Data: payload})
	if err != nil {
		logger.WithError(err).Error("Failed to encode websocket payload", "user_id", userID)
		return
	}

	manager.mu.RLock()
	defer manager.mu.RUnlock()

	for client := range manager.clients[userID] {
		select {
		case client.Send <- msg:
		default:
			logger.Warn("WebSocket send queue full, disconnecting client", "user_id", userID)
			go manager.drop(client)
		}
	}
}

// deliver - ответ одному соединению, если оно еще зарегистрировано
func (manager *WebSocketManager) deliver(client *Client, msg []byte) {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if !manager.clients[client.UserID][client] {
		return
	}
	select {
	case client.Send <- msg:
	default:
	}
}

func (manager *WebSocketManager) drop(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) add(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

// GetClientCount возвращает количество подключенных клиентов
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	total := 0
	for _, conns := range manager.clients {
		total += len(conns)
	}
	return total
}

// IsClientConnected проверяет, подключен ли пользователь
func (manager *WebSocketManager) IsClientConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients[userID]) > 0
}
