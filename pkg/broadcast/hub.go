package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Client is one websocket subscriber.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub keeps the subscriber set. A subscriber whose buffer is full is dropped
// instead of blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	mirror  Mirror

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub. mirror may be nil.
func NewHub(mirror Mirror) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		mirror:  mirror,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish sends the event to every subscriber and to the mirror.
func (h *Hub) Publish(ev Event) {
	payload, err := Encode(ev)
	if err != nil {
		log.WithFields(log.Fields{
			"event_type": ev.Type,
			"error":      err.Error(),
		}).Error("Failed to encode broadcast event")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn("Dropping slow websocket subscriber")
		h.remove(c)
	}

	if h.mirror != nil {
		if err := h.mirror.Mirror(payload); err != nil {
			log.WithFields(log.Fields{
				"event_type": ev.Type,
				"error":      err.Error(),
			}).Warn("Failed to mirror broadcast event")
		}
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and registers the subscriber. greeting, when
// set, is sent to the new subscriber only.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, greeting *Event) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{conn: conn, send: make(chan []byte, sendBufferSize)}
	if greeting != nil {
		if payload, err := Encode(*greeting); err == nil {
			c.send <- payload
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.WithFields(log.Fields{
		"remote_addr": r.RemoteAddr,
		"clients":     h.Count(),
	}).Info("Websocket subscriber connected")

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.once.Do(func() { close(c.send) })
	}
}

// readPump drains inbound frames so control messages are processed. The
// subscriber is removed when the connection fails.
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(log.Fields{
					"error": err.Error(),
				}).Debug("Websocket subscriber read failed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
