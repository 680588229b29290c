package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alfredjeanlab/warroom/internal/model"
)

const (
	// sseRingBufferSize is the number of recent change notices kept for
	// Last-Event-ID replay.
	sseRingBufferSize = 256

	// sseKeepaliveInterval is how often keepalive comments are sent.
	sseKeepaliveInterval = 15 * time.Second

	sseEventChanged = "changed"
)

// changeNotice is the payload of a "changed" event. Clients re-list the
// category on receipt.
type changeNotice struct {
	Category model.Category `json:"category"`
	At       string         `json:"at"`
}

// sseEvent is a single notice stored in the ring buffer and sent to clients.
type sseEvent struct {
	ID       uint64
	Category model.Category
	Data     []byte
}

// sseHub fans out change notices to connected SSE clients, one category per
// client.
type sseHub struct {
	mu      sync.Mutex
	nextID  uint64
	clients map[*sseClient]struct{}
	ring    []sseEvent // oldest first, at most sseRingBufferSize
}

type sseClient struct {
	category model.Category
	ch       chan sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// notify records a change to c and delivers it to every client watching c.
// Slow clients drop notices; the next one still triggers a re-list.
func (h *sseHub) notify(c model.Category, at time.Time) {
	data, _ := json.Marshal(changeNotice{Category: c, At: model.FormatInstant(at)})

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	evt := sseEvent{ID: h.nextID, Category: c, Data: data}
	if len(h.ring) == sseRingBufferSize {
		h.ring = append(h.ring[:0], h.ring[1:]...)
	}
	h.ring = append(h.ring, evt)

	for cl := range h.clients {
		if cl.category != c {
			continue
		}
		select {
		case cl.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(c model.Category) *sseClient {
	cl := &sseClient{category: c, ch: make(chan sseEvent, 16)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	return cl
}

func (h *sseHub) unsubscribe(cl *sseClient) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
}

// since returns buffered notices for c with ID > lastID, oldest first.
func (h *sseHub) since(c model.Category, lastID uint64) []sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sseEvent
	for _, evt := range h.ring {
		if evt.ID > lastID && evt.Category == c {
			out = append(out, evt)
		}
	}
	return out
}

// clientCount returns the number of connected clients.
func (h *sseHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleStream handles GET /v1/records/{category}/stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.hub.subscribe(c)
	defer s.hub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, evt := range s.hub.since(c, lastID) {
				writeSSEEvent(w, evt)
			}
			flusher.Flush()
		}
	}

	ctx := r.Context()
	keepalive := s.clock.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.Chan():
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", sseEventChanged)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}
