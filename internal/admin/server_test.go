package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/hybridmp/internal/cluster"
	"github.com/danmuck/hybridmp/internal/ps"
	"github.com/danmuck/hybridmp/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

type staticSource struct {
	snap cluster.Snapshot
}

func (s staticSource) Snapshot() cluster.Snapshot {
	return s.snap
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	src := staticSource{snap: cluster.Snapshot{
		Name: "test",
		Tiles: []cluster.TileSnapshot{
			{Tile: 0, Routing: "source", Endpoints: 2, PS: ps.Stats{Sent: 3}, ReadyMasks: []uint32{0b11, 0, 0b10}},
			{Tile: 1, Routing: "source", Endpoints: 2, ReadyMasks: []uint32{0, 0, 0}},
		},
	}}
	return New("admin-test", ":0", nil, src, zerolog.Nop())
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	testlog.Start(t)

	rr := get(t, newTestServer(t), "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "admin-test" {
		t.Fatalf("unexpected body %#v", body)
	}
}

func TestTiles(t *testing.T) {
	testlog.Start(t)

	rr := get(t, newTestServer(t), "/tiles")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap cluster.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.Name != "test" || len(snap.Tiles) != 2 || snap.Tiles[0].PS.Sent != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestTileReady(t *testing.T) {
	testlog.Start(t)

	rr := get(t, newTestServer(t), "/tiles/0/ready")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Tile  int          `json:"tile"`
		Ready []ReadyEntry `json:"ready"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Ready) != 2 {
		t.Fatalf("expected two ready tiles, got %+v", body.Ready)
	}
	if body.Ready[0].Tile != 0 || len(body.Ready[0].Endpoints) != 2 {
		t.Fatalf("unexpected entry %+v", body.Ready[0])
	}
	if body.Ready[1].Tile != 2 || body.Ready[1].Endpoints[0] != 1 {
		t.Fatalf("unexpected entry %+v", body.Ready[1])
	}
}

func TestUnknownTile(t *testing.T) {
	testlog.Start(t)

	s := newTestServer(t)
	for _, path := range []string{"/tiles/7", "/tiles/x/ready", "/tiles/-1"} {
		if rr := get(t, s, path); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	testlog.Start(t)

	s := newTestServer(t)
	get(t, s, "/health")
	rr := get(t, s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "hybridmp_http_requests_total") {
		t.Fatalf("expected http request metrics in exposition")
	}
}
