package studio

import (
	"errors"
	"math"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0, "0:00"},
		{5.9, "0:05"},
		{59.99, "0:59"},
		{60, "1:00"},
		{75.2, "1:15"},
		{600, "10:00"},
		{-4, "0:00"},
		{math.NaN(), "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.secs); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestPreview_ToggleAndSeek(t *testing.T) {
	surface := &fakeSurface{durations: map[string]float64{"a": 12}}
	preview := NewPreview(surface)

	if err := preview.Toggle(); !errors.Is(err, ErrNoClip) {
		t.Fatalf("Toggle() without clip error = %v, want ErrNoClip", err)
	}

	if err := preview.Attach(&fakeResource{id: "a"}); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := preview.Toggle(); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !preview.Playing() || !surface.playing {
		t.Fatal("preview should be playing")
	}

	if err := preview.Seek(65.4); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if surface.position != 65.4 || preview.Display() != "1:05" {
		t.Errorf("after seek position=%v display=%q", surface.position, preview.Display())
	}

	surface.position = 3
	preview.Observe()
	if preview.Position() != 3 || preview.Duration() != 12 {
		t.Errorf("Observe() position=%v duration=%v", preview.Position(), preview.Duration())
	}

	preview.Toggle()
	if preview.Playing() || surface.playing {
		t.Error("second Toggle() should pause")
	}
}

func TestPreview_EndedStopsPlaying(t *testing.T) {
	surface := &fakeSurface{durations: map[string]float64{}}
	preview := NewPreview(surface)
	preview.Attach(&fakeResource{id: "a"})
	preview.Toggle()

	surface.ended = true
	preview.Observe()

	if preview.Playing() {
		t.Error("preview still playing after clip ended")
	}
}

func TestPreview_FailedPlayStaysPaused(t *testing.T) {
	surface := &fakeSurface{durations: map[string]float64{}, playErr: errPlaybackRejected}
	preview := NewPreview(surface)
	preview.Attach(&fakeResource{id: "a"})

	if err := preview.Toggle(); err == nil {
		t.Fatal("Toggle() should report the playback failure")
	}
	if preview.Playing() {
		t.Error("preview should stay paused")
	}
}
