package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"zigbee-remote-hub/internal/decoder"
	"zigbee-remote-hub/internal/hub"
	"zigbee-remote-hub/internal/profile"
	"zigbee-remote-hub/internal/store"
	"zigbee-remote-hub/internal/zcl"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *hub.Hub) {
	t.Helper()
	logger := testLogger()

	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "web.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	profiles, err := profile.LoadDir(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}

	h := hub.New(st, profiles, zcl.NewRegistry(logger), hub.NewEventBus(logger), logger, nil)
	s := NewServer(h, logger, opts...)
	t.Cleanup(s.Stop)
	return s, h
}

func seedDevice(t *testing.T, h *hub.Hub) {
	t.Helper()
	h.HandleFrame("aa:bb", "ZBT-Remote-ALL-RGBW", decoder.RawFrame{
		Cluster: 0xFC00,
		Payload: []byte{0, 0, 0, 0, 0, 0x0a},
	})
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestServerHealth(t *testing.T) {
	s, _ := newTestServer(t, WithVersion("1.2.3"))

	w := doRequest(s, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" || resp["version"] != "1.2.3" {
		t.Errorf("resp = %v", resp)
	}
}

func TestServerListDevices(t *testing.T) {
	s, h := newTestServer(t)
	seedDevice(t, h)

	w := doRequest(s, "GET", "/api/devices", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var devices []*store.Device
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 || devices[0].IEEEAddress != "aa:bb" {
		t.Errorf("devices = %+v", devices)
	}
}

func TestServerGetDevice(t *testing.T) {
	s, h := newTestServer(t)
	seedDevice(t, h)

	w := doRequest(s, "GET", "/api/devices/aa:bb", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var dev store.Device
	if err := json.Unmarshal(w.Body.Bytes(), &dev); err != nil {
		t.Fatal(err)
	}
	if dev.Profile != "rgbw-remote" {
		t.Errorf("profile = %q", dev.Profile)
	}

	if w := doRequest(s, "GET", "/api/devices/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing device status = %d, want 404", w.Code)
	}
}

func TestServerRenameDevice(t *testing.T) {
	s, h := newTestServer(t)
	seedDevice(t, h)

	w := doRequest(s, "POST", "/api/devices/aa:bb/rename", []byte(`{"friendly_name":"kitchen"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	dev, err := h.Store().GetDevice("aa:bb")
	if err != nil {
		t.Fatal(err)
	}
	if dev.FriendlyName != "kitchen" {
		t.Errorf("friendly name = %q", dev.FriendlyName)
	}

	if w := doRequest(s, "POST", "/api/devices/aa:bb/rename", []byte(`{`)); w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", w.Code)
	}
	if w := doRequest(s, "POST", "/api/devices/nope/rename", []byte(`{"friendly_name":"x"}`)); w.Code != http.StatusNotFound {
		t.Errorf("missing device status = %d, want 404", w.Code)
	}
}

func TestServerDeleteDevice(t *testing.T) {
	s, h := newTestServer(t)
	seedDevice(t, h)

	w := doRequest(s, "DELETE", "/api/devices/aa:bb", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, err := h.Store().GetDevice("aa:bb"); err == nil {
		t.Error("device survived delete")
	}
}

func TestServerDeviceActions(t *testing.T) {
	s, h := newTestServer(t)
	seedDevice(t, h)

	w := doRequest(s, "GET", "/api/devices/aa:bb/actions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var actions []*store.ActionRecord
	if err := json.Unmarshal(w.Body.Bytes(), &actions); err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Action != "pressed_scene_1" {
		t.Errorf("actions = %+v", actions)
	}

	// Unknown device yields an empty list, not an error.
	w = doRequest(s, "GET", "/api/devices/never-seen/actions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty array", body)
	}
}

func TestServerListProfiles(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, "GET", "/api/profiles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var profiles []*profile.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profiles); err != nil {
		t.Fatal(err)
	}
	if len(profiles) < 2 {
		t.Errorf("got %d profiles, want builtins", len(profiles))
	}
}

func TestServerListClusters(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, "GET", "/api/clusters", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var clusters []zcl.ClusterDef
	if err := json.Unmarshal(w.Body.Bytes(), &clusters); err != nil {
		t.Fatal(err)
	}
	if len(clusters) == 0 {
		t.Fatal("no clusters")
	}
	for i := 1; i < len(clusters); i++ {
		if clusters[i-1].ID > clusters[i].ID {
			t.Errorf("clusters not sorted at %d", i)
		}
	}
}

func TestServerAPIKey(t *testing.T) {
	s, _ := newTestServer(t, WithAPIKey("secret"))

	if w := doRequest(s, "GET", "/api/health", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("X-API-Key", "secret")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("header key status = %d, want 200", w.Code)
	}

	if w := doRequest(s, "GET", "/api/health?api_key=secret", nil); w.Code != http.StatusOK {
		t.Errorf("query key status = %d, want 200", w.Code)
	}

	if w := doRequest(s, "GET", "/api/health?api_key=wrong", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", w.Code)
	}
}
