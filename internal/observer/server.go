// Package observer serves simulation status over HTTP for external
// renderers: a JSON snapshot at /status and a per-tick snapshot stream at
// /ws.
package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/forgery/internal/engine"
)

// Frame is one websocket message.
type Frame struct {
	Type     string          `json:"type"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// Frame types.
const (
	FrameHello = "hello"
	FrameTick  = "tick"
)

const (
	subscriberBuffer = 8
	writeTimeout     = 5 * time.Second
	readTimeout      = 60 * time.Second
	pingInterval     = readTimeout * 9 / 10
)

// Server exposes a Simulation's state. It never mutates the simulation.
type Server struct {
	sim *engine.Simulation
	hub *Hub

	// AllowRemote accepts non-loopback clients. Off by default.
	AllowRemote bool

	// ReadTimeout drops a client that answers no ping within it.
	// PingInterval must be shorter.
	ReadTimeout  time.Duration
	PingInterval time.Duration

	upgrader websocket.Upgrader
}

// NewServer creates a server for sim and subscribes it to every tick. Call
// it after the graph is wired.
func NewServer(sim *engine.Simulation) *Server {
	s := &Server{
		sim:          sim,
		hub:          NewHub(),
		ReadTimeout:  readTimeout,
		PingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	sim.OnTick(func(...any) {
		s.publish(sim.SnapshotInTick())
	})
	return s
}

// Hub returns the server's frame hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler routes /status and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.StatusHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

// StatusHandler returns the current snapshot as JSON.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(s.sim.Snapshot())
	}
}

// WSHandler streams a hello frame with the current snapshot, then one tick
// frame per tick. Slow clients miss frames rather than stall the clock.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frames, unsubscribe := s.hub.Subscribe(subscriberBuffer)
		defer unsubscribe()

		hello, err := json.Marshal(Frame{Type: FrameHello, Snapshot: s.sim.Snapshot()})
		if err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. Listen-only clients are kept alive by pings.
		writeErr := make(chan error, 1)
		go func() {
			ping := time.NewTicker(s.PingInterval)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case <-ping.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
						writeErr <- err
						return
					}
				case b, ok := <-frames:
					if !ok {
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: client messages are ignored; a read error ends the
		// session. Any message or pong extends the deadline.
		extend := func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		conn.SetPongHandler(extend)
		for {
			_ = extend("")
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) publish(snap engine.Snapshot) {
	b, err := json.Marshal(Frame{Type: FrameTick, Snapshot: snap})
	if err != nil {
		slog.Error("encode tick frame", "tick", snap.Tick, "error", err)
		return
	}
	s.hub.Publish(b)
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
