package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/morphrace/internal/engine"
)

// fakeClock advances a fixed step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

const squareMesh = `{"pos":[[0,0],[1,0],[1,1],[0,1]],"triangles":[[0,1,2],[0,2,3]]}`

func newTestServer(t *testing.T, mode string) (*Server, *httptest.Server) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1000, 0), step: 16 * time.Millisecond}
	s, err := New(Config{
		Build: func() (engine.Engine, error) {
			return engine.New(engine.Config{Mode: mode, Laps: 3})
		},
		Clock:    clock.Now,
		TickRate: 200,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, engine.ModeRace)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp.Body); got["status"] != "ok" {
		t.Errorf("expected ok, got %v", got)
	}
}

func TestStartThenUpdateAdvances(t *testing.T) {
	_, srv := newTestServer(t, engine.ModeRace)

	if resp := post(t, srv.URL+"/start", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /start, got %d", resp.StatusCode)
	}

	var snap engine.Snapshot
	for i := 0; i < 10; i++ {
		resp := post(t, srv.URL+"/update", `{"keys":["ArrowUp"],"delta":0.016}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 from /update, got %d", resp.StatusCode)
		}
		snap = decode[engine.Snapshot](t, resp.Body)
	}
	if !snap.Started {
		t.Error("expected race to be started")
	}
	if snap.Time <= 0 {
		t.Errorf("expected elapsed time to advance, got %f", snap.Time)
	}
	if snap.Creatures[0].Speed <= 0 {
		t.Errorf("expected positive speed, got %f", snap.Creatures[0].Speed)
	}
}

func TestUpdateBeforeStartIsNoop(t *testing.T) {
	s, srv := newTestServer(t, engine.ModeRace)
	post(t, srv.URL+"/update", `{"keys":["ArrowUp"],"delta":0.016}`)
	if snap := s.Snapshot(); snap.Started || snap.Creatures[0].Speed != 0 {
		t.Errorf("expected untouched engine, got %+v", snap.Creatures[0])
	}
}

func TestBadPolicyKeepsState(t *testing.T) {
	s, srv := newTestServer(t, engine.ModeRace)
	post(t, srv.URL+"/start", "")
	post(t, srv.URL+"/update", `{"keys":["ArrowUp"],"delta":0.016}`)
	before := s.Snapshot()

	resp := post(t, srv.URL+"/policy", `{"args":"not json","weights":"[]"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if got := decode[errorResponse](t, resp.Body); got.Error == "" {
		t.Error("expected an error message")
	}

	after := s.Snapshot()
	if after.Creatures[0].Driver != before.Creatures[0].Driver || after.Creatures[0].Position != before.Creatures[0].Position {
		t.Errorf("expected state kept, got %+v", after.Creatures[0])
	}
}

func TestMeshAndNodes(t *testing.T) {
	_, srv := newTestServer(t, engine.ModeRace)

	if resp := post(t, srv.URL+"/mesh", "{bad"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad mesh, got %d", resp.StatusCode)
	}
	if resp := post(t, srv.URL+"/mesh", squareMesh); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for mesh, got %d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/nodes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Nodes [][]struct{ X, Y float64 } `json:"nodes"`
		Edges [][2]int                   `json:"edges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Nodes) != 1 || len(body.Nodes[0]) != 4 {
		t.Errorf("expected 4 nodes, got %v", body.Nodes)
	}
	if len(body.Edges) != 5 {
		t.Errorf("expected 5 edges, got %d", len(body.Edges))
	}
}

func TestStartKeepsLoadedMesh(t *testing.T) {
	s, srv := newTestServer(t, engine.ModeRace)
	post(t, srv.URL+"/mesh", squareMesh)
	post(t, srv.URL+"/start", "")
	if snap := s.Snapshot(); len(snap.Nodes) != 1 || len(snap.Nodes[0]) != 4 {
		t.Errorf("expected mesh to survive restart, got %v", snap.Nodes)
	}
}

func TestMalformedUpdate(t *testing.T) {
	_, srv := newTestServer(t, engine.ModeRace)
	resp, err := http.Post(srv.URL+"/update", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketStreamsSnapshots(t *testing.T) {
	s, srv := newTestServer(t, engine.ModeContest)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.WriteJSON(clientMessage{Type: "start"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(clientMessage{Type: "input", Keys: []string{"KeyW"}}); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg struct {
			Type  string          `json:"type"`
			State engine.Snapshot `json:"state"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("failed to read snapshot: %v", err)
		}
		if msg.Type != "state" {
			t.Fatalf("expected state message, got %q", msg.Type)
		}
		if msg.State.Started && msg.State.Creatures[0].Speed > 0 {
			return
		}
	}
}
