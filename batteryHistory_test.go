package main

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/photonicat/simply_analog/internal/face"
)

func TestBatteryHistoryWindow(t *testing.T) {
	h := NewBatteryHistory("", 10)
	start := testNow
	for i := 0; i < 15; i++ {
		h.Record(100-i, start.Add(time.Duration(i)*time.Minute))
	}

	samples := h.Samples()
	if len(samples) != 10 {
		t.Fatalf("expected the last 10 minutes, got %d samples", len(samples))
	}
	if samples[0].Percent != 95 || samples[len(samples)-1].Percent != 86 {
		t.Errorf("unexpected window %d..%d", samples[0].Percent, samples[len(samples)-1].Percent)
	}
}

func TestBatteryHistoryMaxSamples(t *testing.T) {
	h := NewBatteryHistory("", 24*60)
	for i := 0; i < MAX_BATTERY_SAMPLES+50; i++ {
		h.Record(50, testNow.Add(time.Duration(i)*time.Second))
	}
	if n := len(h.Samples()); n != MAX_BATTERY_SAMPLES {
		t.Errorf("expected %d samples, got %d", MAX_BATTERY_SAMPLES, n)
	}
}

func TestBatteryHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battery.json")
	h := NewBatteryHistory(path, 60)
	h.Record(90, testNow.Add(-30*time.Minute))
	h.Record(88, testNow)
	if err := h.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewBatteryHistory(path, 60)
	if err := loaded.Load(testNow.Add(45 * time.Minute)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	samples := loaded.Samples()
	if len(samples) != 1 || samples[0].Percent != 88 {
		t.Errorf("expected only the recent sample after load, got %+v", samples)
	}

	missing := NewBatteryHistory(filepath.Join(t.TempDir(), "none.json"), 60)
	if err := missing.Load(testNow); err != nil {
		t.Errorf("missing history should not fail: %v", err)
	}
}

func TestDrawBatteryGraph(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 20))
	bg := color.RGBA{0, 0, 0, 255}
	fg := color.RGBA{255, 255, 255, 255}
	alert := face.ChromeYellow.RGBA()
	clearFrame(img, bg)

	samples := []BatterySample{
		{Timestamp: testNow, Percent: 100},
		{Timestamp: testNow.Add(time.Minute), Percent: 50},
		{Timestamp: testNow.Add(2 * time.Minute), Percent: 10},
	}
	drawBatteryGraph(img, face.Rect{X: 0, Y: 0, W: 50, H: 20}, samples, 20, fg, alert)

	if got := img.RGBAAt(0, 0); got != fg {
		t.Errorf("first sample at full charge should start top left, got %v", got)
	}
	if got := img.RGBAAt(49, 18); got != alert {
		t.Errorf("low segment should use the alert color, got %v", got)
	}
	// threshold marker
	if got := img.RGBAAt(3, 16); got != alert {
		t.Errorf("threshold line missing, got %v", got)
	}
}

func TestDrawLine(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	clr := color.RGBA{255, 0, 0, 255}
	drawLine(img, 0, 0, 9, 9, clr)
	for i := 0; i < 10; i++ {
		if img.RGBAAt(i, i) != clr {
			t.Errorf("diagonal pixel %d not set", i)
		}
	}
	// out of bounds endpoints are clipped
	drawLine(img, -5, 5, 20, 5, clr)
	if img.RGBAAt(0, 5) != clr || img.RGBAAt(9, 5) != clr {
		t.Error("clipped line not drawn")
	}
}
