package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// reloadEvent is the wire shape pushed to connected preview clients.
type reloadEvent struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

const (
	eventReload = "reload"
	eventError  = "error"
)

// hub fans build events out to SSE subscribers. Slow clients drop messages
// rather than stalling a broadcast.
type hub struct {
	logger    interfaces.Logger
	keepAlive time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	closed  bool
}

func newHub(logger interfaces.Logger) *hub {
	return &hub{
		logger:    logger,
		keepAlive: 30 * time.Second,
		clients:   map[chan []byte]struct{}{},
	}
}

func (h *hub) subscribe() (chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	events := make(chan []byte, 16)
	h.clients[events] = struct{}{}
	return events, true
}

func (h *hub) unsubscribe(events chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[events]; ok {
		delete(h.clients, events)
		close(events)
	}
}

func (h *hub) broadcast(event reloadEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("event marshal failed", "error", err.Error())
		return
	}
	msg := []byte(fmt.Sprintf("data: %s\n\n", data))

	h.mu.Lock()
	defer h.mu.Unlock()
	for events := range h.clients {
		select {
		case events <- msg:
		default:
			h.logger.Debug("dropping event for slow client")
		}
	}
}

// close disconnects every subscriber and rejects new ones. Used on server
// shutdown so SSE requests drain instead of pinning the listener.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for events := range h.clients {
		delete(h.clients, events)
		close(events)
	}
}

func (h *hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a server-sent event stream.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, ok := h.subscribe()
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.unsubscribe(events)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
