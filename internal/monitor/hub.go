// Package monitor streams transmitted frames and diagnostics to websocket
// clients. It only observes the render loop.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-spookyeyes/internal/controller"
	diag "github.com/coreman2200/funtimes-spookyeyes/internal/diagnostics"
	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

const (
	writeWait  = 200 * time.Millisecond
	sendBuffer = 8
)

// Info describes the running setup; sent to every client on connect.
type Info struct {
	LEDs      int    `json:"leds"`
	Effect    string `json:"effect"`
	Driver    string `json:"driver"`
	Protocol  string `json:"protocol"`
	RefreshMS int    `json:"refresh_ms"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu          sync.RWMutex
	info        Info
	stats       func() controller.Stats
	frameID     uint64
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool
	recent      []diag.Diagnostic
	closed      bool
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

// NewHub reports stats from the given source on /health; it may be nil.
func NewHub(info Info, stats func() controller.Stats) *Hub {
	return &Hub{
		info:        info,
		stats:       stats,
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		log:         log.With().Str("component", "monitor").Logger(),
	}
}

// Router mounts the endpoints behind CORS. An empty origin list allows any origin.
func (h *Hub) Router(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	r.Get("/ws", h.HandleFramesWS)
	r.Get("/diag", h.HandleDiagWS)
	r.Get("/health", h.HandleHealth)
	return r
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	b, _ := json.Marshal(h.info)
	h.mu.RUnlock()
	h.accept(w, r, h.clients, [][]byte{b})
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	var backlog [][]byte
	for _, d := range h.recent {
		b, _ := json.Marshal(d)
		backlog = append(backlog, b)
	}
	h.mu.RUnlock()
	h.accept(w, r, h.diagClients, backlog)
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"info":     h.info,
		"clients":  len(h.clients),
	}
	h.mu.RUnlock()
	if h.stats != nil {
		resp["stats"] = h.stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// PublishFrame hands a transmitted frame to every frame client. Clients that
// cannot keep up are dropped.
func (h *Hub) PublishFrame(colors []led.Color) {
	rgb := make([]byte, 0, len(colors)*3)
	for _, c := range colors {
		rgb = append(rgb, c.R, c.G, c.B)
	}
	h.mu.Lock()
	h.frameID++
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		RGB     []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: h.frameID, RGB: rgb})
	h.broadcast(h.clients, b)
	h.mu.Unlock()
}

// PublishDiag forwards d to diagnostics clients and keeps it for late joiners.
func (h *Hub) PublishDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	h.mu.Lock()
	h.recent = append(h.recent, d)
	if len(h.recent) > 32 {
		h.recent = h.recent[len(h.recent)-32:]
	}
	h.broadcast(h.diagClients, b)
	h.mu.Unlock()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range []map[*client]bool{h.clients, h.diagClients} {
		for c := range set {
			delete(set, c)
			close(c.send)
		}
	}
}

// broadcast must run with h.mu held.
func (h *Hub) broadcast(set map[*client]bool, b []byte) {
	for c := range set {
		if !c.offer(b) {
			h.log.Debug().Str("remote", c.conn.RemoteAddr().String()).Msg("dropping slow client")
			delete(set, c)
			close(c.send)
		}
	}
}

// accept upgrades the request and registers the client with initial queued
// ahead of any broadcast.
func (h *Hub) accept(w http.ResponseWriter, r *http.Request, set map[*client]bool, initial [][]byte) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer+len(initial))}
	for _, b := range initial {
		c.send <- b
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	set[c] = true
	h.mu.Unlock()

	go c.writeLoop()
	go func() {
		defer func() {
			h.mu.Lock()
			if set[c] {
				delete(set, c)
				close(c.send)
			}
			h.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (c *client) offer(b []byte) bool {
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
