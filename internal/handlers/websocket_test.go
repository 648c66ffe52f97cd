package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pump_control/internal/audit"
	"pump_control/internal/models"
	"pump_control/internal/service"
)

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", defaultInterval},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20m", defaultInterval},
		{"interval_ms_too_large", "/ws?interval_ms=900000", defaultInterval},
		{"interval_invalid_string", "/ws?interval=bogus", defaultInterval},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			if got := h.parseInterval(c); got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

type wsMessage struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, s *service.Service, query string, opts ...Option) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewHandler(s, nil, opts...).wsConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var m wsMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestWebSocket_SnapshotStream(t *testing.T) {
	mon := &mockMonitoring{snap: models.Snapshot{Devices: []models.Device{{Name: "88kTank", PowerState: models.PowerOn}}}}
	conn := dialWS(t, &service.Service{Monitoring: mon}, "interval_ms=20")

	first := readMsg(t, conn)
	if first.Type != wsTypeSnapshot {
		t.Fatalf("bad envelope: %+v", first)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(first.Data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Devices) != 1 || snap.Devices[0].Name != "88kTank" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if next := readMsg(t, conn); next.Type != wsTypeSnapshot {
		t.Fatalf("expected periodic snapshot, got %+v", next)
	}
}

func TestWebSocket_SnapshotErrorIsReported(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("breaker open")}
	conn := dialWS(t, &service.Service{Monitoring: mon}, "")

	m := readMsg(t, conn)
	if m.Type != wsTypeError || m.Error != errGetSnapshot {
		t.Fatalf("expected error envelope, got %+v", m)
	}
}

func TestWebSocket_CycleStream(t *testing.T) {
	b := audit.NewBroadcaster()
	conn := dialWS(t, &service.Service{Monitoring: &mockMonitoring{}}, "", WithStream(b))

	if m := readMsg(t, conn); m.Type != wsTypeSnapshot {
		t.Fatalf("expected initial snapshot, got %+v", m)
	}

	deadline := time.Now().Add(time.Second)
	for b.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = b.Publish(context.Background(), models.AuditRecord{Site: "well3", StatusCode: 200, Status: models.StatusOK})

	m := readMsg(t, conn)
	if m.Type != wsTypeCycle {
		t.Fatalf("expected cycle message, got %+v", m)
	}
	var rec models.AuditRecord
	if err := json.Unmarshal(m.Data, &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.Site != "well3" || rec.StatusCode != 200 {
		t.Fatalf("unexpected record %+v", rec)
	}
}
