package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/photonicat/simply_analog/internal/face"
	"github.com/photonicat/simply_analog/internal/store"
)

func newTestApp(t *testing.T) (*Watchface, *BatteryHistory, func(req *http.Request) (*http.Response, []byte)) {
	t.Helper()
	panel := newFakePanel(144, 168)
	w := newTestWatchface(t, openTestStore(t), panel, nil)
	if err := w.OnTick(testNow); err != nil {
		t.Fatal(err)
	}
	hist := NewBatteryHistory("", 60)
	app := newHTTPApp(w, hist)
	do := func(req *http.Request) (*http.Response, []byte) {
		t.Helper()
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("%s %s: %v", req.Method, req.URL, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return resp, body
	}
	return w, hist, do
}

func TestServeFrame(t *testing.T) {
	_, _, do := newTestApp(t)
	resp, body := do(httptest.NewRequest(http.MethodGet, "/frame", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 144 || img.Bounds().Dy() != 168 {
		t.Errorf("unexpected frame size %v", img.Bounds())
	}
}

func TestServeScene(t *testing.T) {
	_, _, do := newTestApp(t)
	resp, body := do(httptest.NewRequest(http.MethodGet, "/scene", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var sc face.Scene
	if err := json.Unmarshal(body, &sc); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if sc.Labels.Weekday.Text != "Wednesday" || sc.Labels.Day.Text != "07" {
		t.Errorf("unexpected labels %+v", sc.Labels)
	}
	if sc.MinuteAngle != face.MinuteAngle(10) {
		t.Errorf("minute angle %d", sc.MinuteAngle)
	}
}

func TestConfigRoutes(t *testing.T) {
	w, _, do := newTestApp(t)
	panel := w.panel.(*fakePanel)

	resp, body := do(httptest.NewRequest(http.MethodGet, "/config", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var rec store.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Config != face.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", rec.Config)
	}

	sends := panel.sends
	msg := `{"COLOUR_BACKGROUND": "#0055AA", "TOGGLE_BLUETOOTH": 0, "SELECT_BATTERY_PERCENT": "abc"}`
	req := httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(msg))
	req.Header.Set("Content-Type", "application/json")
	resp, body = do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var reply configReply
	if err := json.Unmarshal(body, &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Revision == "" {
		t.Error("expected a new revision")
	}
	if len(reply.Ignored) != 1 || reply.Ignored[0] != face.KeySelectBatteryPercent {
		t.Errorf("expected the battery field to be ignored, got %v", reply.Ignored)
	}
	cfg := w.Config()
	if cfg.BackgroundColor != 0x0055AA || cfg.BluetoothAlertEnabled {
		t.Errorf("message not applied: %+v", cfg)
	}
	if panel.sends != sends+1 {
		t.Error("config change should redraw")
	}

	_, body = do(httptest.NewRequest(http.MethodGet, "/config", nil))
	if err := json.Unmarshal(body, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Revision != reply.Revision || !rec.SavedAt.Equal(testNow) {
		t.Errorf("GET /config should report the saved record, got %s at %v", rec.Revision, rec.SavedAt)
	}

	resp, body = do(httptest.NewRequest(http.MethodDelete, "/config", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status %d: %s", resp.StatusCode, body)
	}
	if w.Config() != face.DefaultConfig() {
		t.Error("DELETE /config should restore defaults")
	}
}

func TestUpdateConfigInvalidJSON(t *testing.T) {
	_, _, do := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(`{"COLOUR_BACKGROUND":`))
	resp, body := do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "invalid JSON") {
		t.Errorf("unexpected body %s", body)
	}
}

func TestUpdateConfigSaveFailure(t *testing.T) {
	w := newTestWatchface(t, failingStore{openTestStore(t)}, newFakePanel(144, 168), nil)
	app := newHTTPApp(w, NewBatteryHistory("", 60))

	req := httptest.NewRequest(http.MethodPost, "/config", strings.NewReader(`{"COLOUR_BACKGROUND":"#FFFFFF"}`))
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("save failure should answer 500, got %d", resp.StatusCode)
	}
	var reply configReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Error, "disk full") {
		t.Errorf("unexpected error %q", reply.Error)
	}
	if w.Config().BackgroundColor != face.Black {
		t.Error("failed save must keep the running config")
	}
}

func TestServeIcon(t *testing.T) {
	_, _, do := newTestApp(t)

	resp, body := do(httptest.NewRequest(http.MethodGet, "/icon/bluetooth?tone=black", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(string(body), "#000000") {
		t.Errorf("tone not applied: %s", body)
	}

	resp, _ = do(httptest.NewRequest(http.MethodGet, "/icon/wifi", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown icon should 404, got %d", resp.StatusCode)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	_, _, do := newTestApp(t)

	resp, body := do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var health struct {
		Status  string       `json:"status"`
		Display face.Display `json:"display"`
		Sensors face.Sensors `json:"sensors"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Display.Width != 144 || health.Sensors.BatteryPercent != 100 {
		t.Errorf("unexpected health %+v", health)
	}

	resp, body = do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "simply_analog_renders_total") {
		t.Errorf("render counter missing from metrics output")
	}
}

func TestBatteryRoutes(t *testing.T) {
	_, hist, do := newTestApp(t)
	hist.Record(80, testNow.Add(-2*time.Minute))
	hist.Record(75, testNow.Add(-time.Minute))
	hist.Record(70, testNow)

	resp, body := do(httptest.NewRequest(http.MethodGet, "/battery", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var samples []BatterySample
	if err := json.Unmarshal(body, &samples); err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 || samples[2].Percent != 70 {
		t.Errorf("unexpected samples %+v", samples)
	}

	resp, body = do(httptest.NewRequest(http.MethodGet, "/battery/graph", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("graph status %d", resp.StatusCode)
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != GRAPH_WIDTH || img.Bounds().Dy() != GRAPH_HEIGHT {
		t.Errorf("unexpected graph size %v", img.Bounds())
	}
}
