package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
)

// Event is one server-sent event addressed to a single user
type Event struct {
	UserID  string
	Type    string
	Payload interface{}
}

type client struct {
	userID string
	send   chan Event
}

// Manager fans events out to connected SSE clients per user
type Manager struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	events     chan Event
}

// NewManager creates a new SSE manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan Event, 64),
	}
}

// Run processes registrations and event dispatch. Call in a goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = true
			m.mu.Unlock()
			log.Printf("[SSE] Client connected for user %s", c.userID)
		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.send)
			}
			m.mu.Unlock()
			log.Printf("[SSE] Client disconnected for user %s", c.userID)
		case event := <-m.events:
			m.mu.RLock()
			for c := range m.clients {
				if c.userID != event.UserID {
					continue
				}
				select {
				case c.send <- event:
				default:
					// Slow client, drop the event rather than block dispatch
				}
			}
			m.mu.RUnlock()
		}
	}
}

// SendToUser queues an event for all connections belonging to the user.
func (m *Manager) SendToUser(userID string, eventType string, payload interface{}) {
	select {
	case m.events <- Event{UserID: userID, Type: eventType, Payload: payload}:
	default:
		log.Printf("[SSE] Event queue full, dropping %s event for user %s", eventType, userID)
	}
}

// ServeHTTP streams events to one client connection until it disconnects.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	cl := &client{
		userID: userID,
		send:   make(chan Event, 16),
	}
	m.register <- cl
	defer func() {
		m.unregister <- cl
	}()

	// Initial comment so proxies flush the response immediately
	fmt.Fprintf(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	for {
		select {
		case event, ok := <-cl.send:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Payload)
			if err != nil {
				log.Printf("[SSE] Failed to marshal payload: %v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, data)
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
