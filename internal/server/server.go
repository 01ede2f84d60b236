// Package server hosts one engine over HTTP and WebSocket.
//
// The JSON endpoints mirror a browser game loop: the client posts /start,
// then posts /update every animation frame with the held keys and the frame
// delta. WebSocket clients instead send key frames and receive snapshots at
// the server's tick rate.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/morphrace/internal/engine"
)

const maxBody = 8 << 20

// Clock returns the current wall time. Engines receive it in milliseconds.
type Clock func() time.Time

type Config struct {
	// Build constructs a fresh engine. /start calls it again and re-applies
	// the last loaded policy and mesh.
	Build    func() (engine.Engine, error)
	Clock    Clock
	TickRate int
	Logger   *slog.Logger
}

type Server struct {
	mu      sync.Mutex
	build   func() (engine.Engine, error)
	eng     engine.Engine
	policy  *policyRequest
	mesh    string
	clock   Clock
	tick    time.Duration
	logger  *slog.Logger
	clients map[*client]struct{}

	upgrader websocket.Upgrader
}

type policyRequest struct {
	Args    string `json:"args"`
	Weights string `json:"weights"`
	Slot    int    `json:"slot,omitempty"`
}

type updateRequest struct {
	Keys  []string `json:"keys"`
	Delta float64  `json:"delta"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// slotLoader is implemented by engines with more than one policy slot.
type slotLoader interface {
	LoadPolicyFor(slot int, args, weights string) error
}

// edger is implemented by single-creature engines.
type edger interface {
	Edges() [][2]int
}

func New(cfg Config) (*Server, error) {
	if cfg.Build == nil {
		return nil, errors.New("server: nil engine builder")
	}
	eng, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		build:   cfg.Build,
		eng:     eng,
		clock:   cfg.Clock,
		tick:    time.Second / time.Duration(cfg.TickRate),
		logger:  cfg.Logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}, nil
}

func (s *Server) now() float64 {
	return float64(s.clock().UnixNano()) / 1e6
}

// Handler returns the routed, request-logging handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /update", s.handleUpdate)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /policy", s.handlePolicy)
	mux.HandleFunc("POST /mesh", s.handleMesh)
	mux.HandleFunc("GET /nodes", s.handleNodes)
	mux.HandleFunc("GET /ws", s.handleWS)
	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStart replaces the engine with a fresh one and starts it.
func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.restart()
	if err != nil {
		s.logger.Error("restart failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "started", "start_time": now})
}

// restart must be called with s.mu held.
func (s *Server) restart() (float64, error) {
	eng, err := s.build()
	if err != nil {
		return 0, err
	}
	if s.policy != nil {
		if err := loadPolicy(eng, *s.policy); err != nil {
			return 0, err
		}
	}
	if s.mesh != "" {
		if err := eng.InitSimulation(s.mesh); err != nil {
			return 0, err
		}
	}
	now := s.now()
	eng.Start(now)
	s.eng = eng
	return now, nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	s.mu.Lock()
	s.eng.Update(req.Delta, s.now(), req.Keys)
	snap := s.eng.Snapshot()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Snapshot returns the current engine snapshot.
func (s *Server) Snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Snapshot()
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := loadPolicy(s.eng, req); err != nil {
		s.logger.Warn("policy rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	s.policy = &req
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func loadPolicy(eng engine.Engine, req policyRequest) error {
	if l, ok := eng.(slotLoader); ok && req.Slot != 0 {
		return l.LoadPolicyFor(req.Slot, req.Args, req.Weights)
	}
	return eng.LoadPolicy(req.Args, req.Weights)
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.eng.InitSimulation(string(body)); err != nil {
		s.logger.Warn("mesh rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	s.mesh = string(body)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.eng.Snapshot()
	var edges [][2]int
	if e, ok := s.eng.(edger); ok {
		edges = e.Edges()
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, struct {
		Nodes any      `json:"nodes"`
		Edges [][2]int `json:"edges,omitempty"`
	}{snap.Nodes, edges})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
