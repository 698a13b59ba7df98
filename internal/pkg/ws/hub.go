// Package ws fans ingestion progress out to websocket subscribers, keyed by
// project.
package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Hub struct {
	// A project can have several watchers (multiple tabs, reconnects).
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	ProjectID string
	Conn      *websocket.Conn
	mu        sync.Mutex // write lock, gorilla connections allow one writer
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.ProjectID] == nil {
		h.clients[client.ProjectID] = make(map[*Client]struct{})
	}
	h.clients[client.ProjectID][client] = struct{}{}
	log.Printf("ws: project %s watcher connected, watchers: %d", client.ProjectID, len(h.clients[client.ProjectID]))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.ProjectID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.ProjectID)
		}
	}
	log.Printf("ws: project %s watcher disconnected", client.ProjectID)
}

// SendToProject delivers a message to every watcher of the project. Write
// errors are logged, not returned; a dead connection is cleaned up by its
// own read loop.
func (h *Hub) SendToProject(projectID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[projectID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			log.Printf("ws: write error for project %s: %v", projectID, err)
		}
	}
	return nil
}

// WatcherCount reports the watchers of one project.
func (h *Hub) WatcherCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[projectID])
}

// ConnectionCount reports all open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
