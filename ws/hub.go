package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek
// için kullandığı interface.
//
// Service'ler Hub'ın concrete struct'ına değil bu interface'e bağımlıdır:
// testlerde fake EventPublisher kullanılabilir, Hub implementasyonu
// değişse bile service kodu etkilenmez.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
	BroadcastToStaff(event Event)
	GetOnlineUserIDs() []string
}

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
//
// Hub.Run() goroutine'i register/unregister channel'larından select ile
// okur; broadcast metodları clients map'ini RWMutex altında gezer.
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla tab'ı olabilir).
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	seq atomic.Int64

	// staff: userID → staff mi (seguridad/administrador/developer).
	// Bağlantı kurulurken token claim'inden set edilir; BroadcastToStaff
	// kapı terminallerine ve yönetime olan akışı filtrelemek için kullanır.
	staff   map[string]bool
	staffMu sync.RWMutex
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		staff:      make(map[string]bool),
	}
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s (total connections for user: %d)",
		client.userID, len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.clients, client.userID)
				log.Printf("[ws] user fully disconnected: %s", client.userID)
			} else {
				log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
					client.userID, len(clients))
			}
		}
	}
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			h.trySend(client, data)
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			h.trySend(client, data)
		}
	}
}

// BroadcastToStaff, sadece staff rollü bağlantılara event gönderir.
// Defter olayları kapı terminallerine buradan akar — anfitrionlar
// başkalarının davetlerini görmez.
func (h *Hub) BroadcastToStaff(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal staff event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, clients := range h.clients {
		if !h.isStaff(userID) {
			continue
		}
		for client := range clients {
			h.trySend(client, data)
		}
	}
}

// trySend, client buffer'ına non-blocking yazma dener.
// Buffer doluysa client yavaş demektir — bağlantı koparılır.
func (h *Hub) trySend(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		go func(c *Client) { h.unregister <- c }(client)
	}
}

// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// SetUserStaff, bağlantı kurulurken kullanıcının staff bayrağını kaydeder.
func (h *Hub) SetUserStaff(userID string, staff bool) {
	h.staffMu.Lock()
	defer h.staffMu.Unlock()
	h.staff[userID] = staff
}

func (h *Hub) isStaff(userID string) bool {
	h.staffMu.RLock()
	defer h.staffMu.RUnlock()
	return h.staff[userID]
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
