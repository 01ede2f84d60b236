package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 8
	writeWait  = 2 * time.Second
)

// clientMessage is one WebSocket input frame. Type "start" restarts the
// engine; any other type replaces the client's held keys.
type clientMessage struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type stateMessage struct {
	Type  string `json:"type"`
	State any    `json:"state"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	keys []string
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.send)
	s.logger.Debug("websocket client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) readLoop(c *client) {
	defer c.conn.Close()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Debug("discarding malformed frame", "error", err)
			continue
		}

		s.mu.Lock()
		if msg.Type == "start" {
			if _, err := s.restart(); err != nil {
				s.logger.Error("restart failed", "error", err)
			}
		} else {
			c.keys = msg.Keys
		}
		s.mu.Unlock()
	}
}

func (c *client) writeLoop() {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Run steps the engine at the tick rate while WebSocket clients are
// connected and pushes each snapshot to them. It returns when ctx ends.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the engine one frame with the union of every client's held
// keys and broadcasts the result. It does nothing without clients.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}

	var keys []string
	for c := range s.clients {
		for _, k := range c.keys {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	s.eng.Update(s.tick.Seconds(), s.now(), keys)

	data, err := json.Marshal(stateMessage{Type: "state", State: s.eng.Snapshot()})
	if err != nil {
		s.logger.Error("encode snapshot", "error", err)
		return
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}
