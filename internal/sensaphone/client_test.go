package sensaphone

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pump_control/internal/models"
)

const deviceTree = `{
  "result": {"success": true, "code": 0},
  "response": {"device": [
    {"device_id": 1001, "name": "TreatmentPlant", "description": "TP", "is_online": true, "power_value": "On",
     "zone": [
       {"zone_id": 1, "name": "88k Pump", "type": "output", "units": "", "value": "Off", "enable": true},
       {"zone_id": 7, "name": "Spare", "type": "temperature", "units": "F", "value": 71.5, "enable": false}
     ]},
    {"device_id": 1002, "name": "88kTank", "is_online": true, "power_value": "Off",
     "zone": [{"zone_id": 3, "name": "88k Level", "type": "analog", "units": "Ft", "value": "21.7Ft", "enable": true}]}
  ]}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, MaxFailures: 2, OpenTimeout: time.Minute})
	c.now = func() time.Time { return time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC) }
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	b, _ := io.ReadAll(r.Body)
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Errorf("request body is not JSON: %s", b)
	}
	return m
}

func TestLogin_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body := decodeBody(t, r)
		if body["request_type"] != "create" || body["resource"] != "login" || body["user_name"] != "ops" || body["password"] != "pw" {
			t.Errorf("unexpected login body: %v", body)
		}
		_, _ = io.WriteString(w, `{"result":{"success":true,"code":0},"response":{"session":"s1","acctid":100010835,"session_expiration":14400,"login_timestamp":1719856800}}`)
	})

	cred, err := c.Login(context.Background(), "ops", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	issued := time.Unix(1719856800, 0).UTC()
	if cred.Token != "s1" || cred.AccountID != 100010835 {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if !cred.IssuedAt.Equal(issued) || !cred.ExpiresAt.Equal(issued.Add(4*time.Hour)) {
		t.Fatalf("expiry not login_timestamp + session_expiration: %+v", cred)
	}
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"success":false,"code":1,"message":"bad password"}}`)
	})
	_, err := c.Login(context.Background(), "ops", "wrong")
	if !errors.Is(err, models.ErrAuth) {
		t.Fatalf("want ErrAuth, got %v", err)
	}
}

func TestLogin_NoSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"success":true,"code":0},"response":{}}`)
	})
	_, err := c.Login(context.Background(), "ops", "pw")
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

func TestFetchSnapshot_MapsFullTree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["request_type"] != "read" || body["session"] != "tok" || body["acctid"] != float64(7) {
			t.Errorf("unexpected read body: %v", body)
		}
		if _, ok := body["device"]; !ok {
			t.Errorf("device key must be sent (null)")
		}
		_, _ = io.WriteString(w, deviceTree)
	})

	snap, err := c.FetchSnapshot(context.Background(), models.Credential{Token: "tok", AccountID: 7})
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if len(snap.Devices) != 2 {
		t.Fatalf("want 2 devices, got %d", len(snap.Devices))
	}
	tp, _ := snap.Device("TreatmentPlant")
	if tp.PowerState != models.PowerOn || len(tp.Zones) != 2 {
		t.Fatalf("unexpected TreatmentPlant: %+v", tp)
	}
	pump, _ := tp.Zone("88k Pump")
	if pump.Kind != models.ZoneOutput || pump.RawValue != "Off" {
		t.Fatalf("unexpected pump zone: %+v", pump)
	}
	spare, _ := tp.Zone("Spare")
	if spare.Enabled || spare.RawValue != "71.5" || spare.Kind != models.ZoneSensor {
		t.Fatalf("disabled zone must be kept and flagged: %+v", spare)
	}
	tank, _ := snap.Device("88kTank")
	if tank.PowerState != models.PowerOff {
		t.Fatalf("want power Off, got %s", tank.PowerState)
	}
	if lvl, _ := tank.Zone("88k Level"); lvl.RawValue != "21.7Ft" {
		t.Fatalf("level must stay raw, got %q", lvl.RawValue)
	}
}

func TestFetchSnapshot_Failures(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"session expired", `{"result":{"success":false,"code":2,"message":"session"}}`, models.ErrSessionExpired},
		{"not json", `<html>gateway</html>`, models.ErrTransport},
		{"no result", `{"response":{"device":[]}}`, models.ErrTransport},
		{"no device list", `{"result":{"success":true},"response":{}}`, models.ErrTransport},
		{"device without zone list", `{"result":{"success":true},"response":{"device":[{"device_id":1,"name":"A"}]}}`, models.ErrTransport},
		{"zone without id", `{"result":{"success":true},"response":{"device":[{"device_id":1,"name":"A","zone":[{"name":"z"}]}]}}`, models.ErrTransport},
		{"other failure", `{"result":{"success":false,"code":9}}`, models.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})
			snap, err := c.FetchSnapshot(context.Background(), models.Credential{Token: "tok"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if len(snap.Devices) != 0 {
				t.Fatalf("no partial snapshot expected, got %+v", snap)
			}
		})
	}
}

func TestSetOutput_SendsUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/zone" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(b), `"request_type":"update"`) ||
			!strings.Contains(string(b), `"device":[{"device_id":45275,"zone":[{"zone_id":26,"output_zone":{"value":0}}]}]`) {
			t.Errorf("unexpected update body: %s", b)
		}
		_, _ = io.WriteString(w, `{"result":{"success":true,"code":0}}`)
	})

	res, err := c.SetOutput(context.Background(), models.Credential{Token: "tok", AccountID: 1}, 45275, 26, 0)
	if err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	if !res.Success || len(res.Raw) == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSetOutput_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"success":false,"code":5,"message":"zone locked"}}`)
	})
	res, err := c.SetOutput(context.Background(), models.Credential{Token: "tok"}, 1, 1, 1)
	if !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("want ErrUpstream, got %v", err)
	}
	if res.Code != 5 || res.Success {
		t.Fatalf("remote code must be kept: %+v", res)
	}
}

func TestSetOutput_SessionExpired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"success":false,"code":2}}`)
	})
	_, err := c.SetOutput(context.Background(), models.Credential{Token: "old"}, 1, 1, 1)
	if !errors.Is(err, models.ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
}

func TestBreaker_OpensOnTransportFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "bad gateway")
	})

	for i := 0; i < 3; i++ {
		_, err := c.FetchSnapshot(context.Background(), models.Credential{Token: "tok"})
		if !errors.Is(err, models.ErrTransport) {
			t.Fatalf("call %d: want ErrTransport, got %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("breaker should stop calls after 2 failures, server saw %d", got)
	}
}

func TestBreaker_IgnoresSessionRejections(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"result":{"success":false,"code":2}}`)
	})
	for i := 0; i < 4; i++ {
		_, _ = c.FetchSnapshot(context.Background(), models.Credential{Token: "tok"})
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Fatalf("session rejections must not trip the breaker, server saw %d", got)
	}
}
