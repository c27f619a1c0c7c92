// Package feed connects to upstream token-creation streams and hands every
// create event to a handler.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"devscope/internal/models"
	"devscope/pkg/broadcast"
)

const (
	// Connection states
	StateDisconnected = "disconnected"
	StateConnected    = "connected"
	StateError        = "error"

	reconnectDelay = 5 * time.Second

	PlatformPumpFun  = "pumpfun"
	PlatformLetsBonk = "letsbonk"

	DefaultPumpPortalURL = "wss://pumpportal.fun/api/data"
)

// Handler receives create events.
type Handler func(ev models.TokenEvent, platform string)

// Manager owns the feed connections. Each feed reconnects on a single-shot
// timer that Stop cancels.
type Manager struct {
	url     string
	handler Handler
	pub     broadcast.Publisher
	dialer  *websocket.Dialer

	mu       sync.Mutex
	running  bool
	conns    map[string]*websocket.Conn
	timers   map[string]*time.Timer
	statuses map[string]string

	reconnectDelay time.Duration
}

// NewManager creates a stopped manager. An empty url uses the public
// PumpPortal endpoint.
func NewManager(url string, handler Handler, pub broadcast.Publisher) *Manager {
	if url == "" {
		url = DefaultPumpPortalURL
	}
	return &Manager{
		url:            url,
		handler:        handler,
		pub:            pub,
		dialer:         websocket.DefaultDialer,
		conns:          make(map[string]*websocket.Conn),
		timers:         make(map[string]*time.Timer),
		statuses:       make(map[string]string),
		reconnectDelay: reconnectDelay,
	}
}

// Start connects every feed.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	go m.connectPumpPortal(ctx)
	m.connectLetsBonk()
}

// Stop closes every connection and cancels pending reconnects.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.running = false
	for name, t := range m.timers {
		t.Stop()
		delete(m.timers, name)
	}
	conns := make([]*websocket.Conn, 0, len(m.conns))
	for name, c := range m.conns {
		conns = append(conns, c)
		delete(m.conns, name)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// Statuses returns the last reported status per feed.
func (m *Manager) Statuses() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

func (m *Manager) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) status(platform, status string, err error) {
	m.mu.Lock()
	m.statuses[platform] = status
	m.mu.Unlock()

	data := map[string]interface{}{"platform": platform, "status": status}
	if err != nil {
		data["error"] = err.Error()
	}
	if m.pub != nil {
		m.pub.Publish(broadcast.Event{Type: "platform_status", Data: data})
	}
}

// scheduleReconnect arms the single reconnect timer of a feed.
func (m *Manager) scheduleReconnect(ctx context.Context, platform string, connect func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if t, ok := m.timers[platform]; ok {
		t.Stop()
	}
	m.timers[platform] = time.AfterFunc(m.reconnectDelay, func() {
		m.mu.Lock()
		delete(m.timers, platform)
		m.mu.Unlock()
		connect(ctx)
	})
}

func (m *Manager) connectPumpPortal(ctx context.Context) {
	if !m.isRunning() {
		return
	}
	logger := log.WithFields(log.Fields{"platform": PlatformPumpFun, "url": m.url})

	c, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		logger.WithField("error", err.Error()).Error("Failed to connect to token feed")
		m.status(PlatformPumpFun, StateError, err)
		m.status(PlatformPumpFun, StateDisconnected, nil)
		m.scheduleReconnect(ctx, PlatformPumpFun, m.connectPumpPortal)
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		c.Close()
		return
	}
	if old, ok := m.conns[PlatformPumpFun]; ok {
		old.Close()
	}
	m.conns[PlatformPumpFun] = c
	m.mu.Unlock()

	if err := c.WriteJSON(map[string]string{"method": "subscribeNewToken"}); err != nil {
		logger.WithField("error", err.Error()).Error("Failed to subscribe to new tokens")
	}
	logger.Info("Connected to token feed")
	m.status(PlatformPumpFun, StateConnected, nil)

	m.readLoop(c, PlatformPumpFun, logger)

	m.mu.Lock()
	if m.conns[PlatformPumpFun] == c {
		delete(m.conns, PlatformPumpFun)
	}
	m.mu.Unlock()

	m.status(PlatformPumpFun, StateDisconnected, nil)
	m.scheduleReconnect(ctx, PlatformPumpFun, m.connectPumpPortal)
}

func (m *Manager) readLoop(c *websocket.Conn, platform string, logger *log.Entry) {
	defer c.Close()
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if m.isRunning() {
				logger.WithField("error", err.Error()).Warn("Token feed read failed")
			}
			return
		}

		var probe struct {
			TxType string `json:"txType"`
		}
		if err := json.Unmarshal(message, &probe); err != nil {
			logger.WithField("error", err.Error()).Debug("Skipping undecodable feed message")
			continue
		}
		if probe.TxType != "create" || !m.isRunning() {
			continue
		}

		ev, err := models.ParseTokenEvent(message)
		if err != nil {
			logger.WithField("error", err.Error()).Debug("Skipping malformed create event")
			continue
		}
		m.handler(ev, platform)
	}
}

// connectLetsBonk reports the LetsBonk feed, which has no public stream.
func (m *Manager) connectLetsBonk() {
	m.status(PlatformLetsBonk, "not_implemented", nil)
}
