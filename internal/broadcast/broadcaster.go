// Package broadcast implements the Status Broadcaster (spec.md §4.7): a
// gorilla/websocket hub that fans out window-status changes to every
// subscribed client, adapted from the teacher's internal/websocket hub.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
	pongWait         = 60 * time.Second
)

// Client is one subscribed WebSocket connection.
type Client struct {
	bus  *Broadcaster
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster maintains the set of subscribed clients and fans out
// published status payloads. All map access is channel-serialized through
// Run's select loop, the same register/unregister/broadcast pattern as the
// teacher's Hub.
type Broadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan []byte

	mu      sync.RWMutex
	current []byte
}

// New builds a Broadcaster. Callers must start Run in its own goroutine.
func New() *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan []byte, 16),
	}
}

// Run drives the hub's event loop until ctx-independent shutdown (the
// process lifetime); callers invoke it as `go bus.Run()`.
func (b *Broadcaster) Run() {
	for {
		select {
		case c := <-b.register:
			b.mu.Lock()
			b.clients[c] = true
			snapshot := b.current
			b.mu.Unlock()
			if snapshot != nil {
				select {
				case c.send <- snapshot:
				default:
				}
			}

		case c := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
			}
			b.mu.Unlock()

		case msg := <-b.publish:
			b.mu.Lock()
			b.current = msg
			dropped := make([]*Client, 0)
			for c := range b.clients {
				select {
				case c.send <- msg:
				default:
					dropped = append(dropped, c)
				}
			}
			for _, c := range dropped {
				delete(b.clients, c)
				close(c.send)
			}
			b.mu.Unlock()
		}
	}
}

// Publish marshals payload to JSON and fans it out to every subscriber.
// Intended to be called from the Window Controller after every committed
// mutation or automatic override expiry (spec.md §4.7).
func (b *Broadcaster) Publish(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logx.Errorf("broadcast: failed to marshal status: %v", err)
		return
	}
	b.publish <- data
}

// Subscribe registers conn as a new client and starts its read/write
// pumps. Called from the Boundary Adapter's WebSocket handler.
func (b *Broadcaster) Subscribe(conn *websocket.Conn) {
	c := &Client{bus: b, conn: conn, send: make(chan []byte, clientSendBuffer)}
	b.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to detect client disconnects and keep the
// connection's read deadline extended via pong frames; subscribers never
// send data the broker interprets.
func (c *Client) readPump() {
	defer func() {
		c.bus.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
