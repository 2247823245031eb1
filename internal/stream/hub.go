// Package stream pushes frames to browser or tool clients over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"evacsim/internal/record"
)

const (
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeEnd   = "end"
)

// Message is the only JSON shape sent to clients. A client gets one hello
// (run metadata and the latest frame, if any), then frames, then end.
type Message struct {
	Type   string         `json:"type"`
	Header *record.Header `json:"header,omitempty"`
	Frame  *record.Frame  `json:"frame,omitempty"`
}

type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	header  record.Header
	last    *record.Frame
	clients map[uint64]chan []byte
	ended   bool
}

func NewHub(h record.Header, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:    logger,
		header: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[uint64]chan []byte{},
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish sends f to every client. A client whose queue is full misses the
// frame; the next one carries the full grid anyway.
func (h *Hub) Publish(f record.Frame) {
	b, err := json.Marshal(Message{Type: TypeFrame, Frame: &f})
	if err != nil {
		h.log.Error("encode frame", "step", f.Step, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &f
	for id, ch := range h.clients {
		select {
		case ch <- b:
		default:
			h.log.Debug("client behind, frame dropped", "client", id, "step", f.Step)
		}
	}
}

// Finish tells every client the run is over and closes their queues.
// Clients connecting afterwards get hello and end.
func (h *Hub) Finish() {
	b, _ := json.Marshal(Message{Type: TypeEnd})
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ended {
		return
	}
	h.ended = true
	for id, ch := range h.clients {
		select {
		case ch <- b:
		default:
		}
		close(ch)
		delete(h.clients, id)
	}
}

func (h *Hub) join() (uint64, chan []byte, [][]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hello, _ := json.Marshal(Message{Type: TypeHello, Header: &h.header, Frame: h.last})
	first := [][]byte{hello}
	if h.ended {
		end, _ := json.Marshal(Message{Type: TypeEnd})
		return 0, nil, append(first, end)
	}
	id := h.nextID.Add(1)
	ch := make(chan []byte, 64)
	h.clients[id] = ch
	return id, ch, first
}

func (h *Hub) leave(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out, first := h.join()
		for _, b := range first {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.leave(id)
				return
			}
		}
		if out == nil {
			h.closeNormal(conn)
			return
		}
		h.log.Info("client joined", "client", id, "remote", r.RemoteAddr)

		// Reader: clients only talk to close; a read error means gone.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				h.leave(id)
				h.log.Info("client left", "client", id)
				return
			case b, ok := <-out:
				if !ok {
					h.closeNormal(conn)
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					h.leave(id)
					return
				}
			}
		}
	}
}

func (h *Hub) closeNormal(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of run"), time.Now().Add(time.Second))
}

// Pump publishes src one frame per interval and finishes the hub when the
// source is spent or ctx ends.
func Pump(ctx context.Context, src record.Source, h *Hub, interval time.Duration) error {
	defer h.Finish()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		f, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		h.Publish(f)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
