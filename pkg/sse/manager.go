package sse

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is one server-sent event addressed to a user.
type Event struct {
	Name string
	Data interface{}
}

type client struct {
	userID string
	events chan Event
}

type delivery struct {
	userID string
	event  Event
}

// Manager fans events out to every open stream of a user.
type Manager struct {
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan delivery
	mu         sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan delivery, 256),
	}
}

// Run owns the client registry. Start it once in its own goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			if m.clients[c.userID] == nil {
				m.clients[c.userID] = make(map[*client]struct{})
			}
			m.clients[c.userID][c] = struct{}{}
			m.mu.Unlock()
			log.Printf("[SSE] Client connected for user %s", c.userID)

		case c := <-m.unregister:
			m.mu.Lock()
			if set, ok := m.clients[c.userID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.events)
				}
				if len(set) == 0 {
					delete(m.clients, c.userID)
				}
			}
			m.mu.Unlock()
			log.Printf("[SSE] Client disconnected for user %s", c.userID)

		case d := <-m.broadcast:
			m.mu.RLock()
			for c := range m.clients[d.userID] {
				select {
				case c.events <- d.event:
				default:
					// slow reader, drop the event
				}
			}
			m.mu.RUnlock()
		}
	}
}

// SendToUser queues an event for every stream the user has open.
// It never blocks the caller.
func (m *Manager) SendToUser(userID, event string, data interface{}) {
	select {
	case m.broadcast <- delivery{userID: userID, event: Event{Name: event, Data: data}}:
	default:
		log.Printf("[SSE] Broadcast queue full, dropping %s for user %s", event, userID)
	}
}

// ConnectedClients returns the number of open streams for a user.
func (m *Manager) ConnectedClients(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID])
}

// ServeHTTP streams events to the caller until the request is cancelled.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	cl := &client{userID: userID, events: make(chan Event, 16)}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"user_id": userID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-cl.events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
