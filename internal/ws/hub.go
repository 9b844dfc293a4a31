package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Envelope is the wire frame for every pushed event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans events out to connected websocket clients. It satisfies the
// pricing service's Broadcaster interface. Each client writes from its own
// goroutine fed by a buffered channel; a client that stops draining loses
// frames instead of blocking the hub.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Broadcast serializes the event and queues it to every connected client.
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("[WS] marshal %s failed: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			// Full buffer means a stalled consumer. Drop the frame;
			// pricing pushes are advisory and the client can refetch.
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Handler returns the fiber websocket handler. Mount it behind the upgrade
// middleware on a GET route.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		c := &client{conn: conn, send: make(chan []byte, 16)}
		h.add(c)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for frame := range c.send {
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			}
		}()

		// Drain reads so pings and close frames are processed. Inbound
		// payloads are ignored; this is a push-only channel.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		// Deregister before closing send: remove blocks until in-flight
		// broadcasts release the read lock, so nothing can write to the
		// channel after this point.
		h.remove(c)
		close(c.send)
		<-done
		conn.Close()
	}
}
