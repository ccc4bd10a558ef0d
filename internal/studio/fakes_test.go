package studio

import (
	"errors"
	"io"
	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeResource struct {
	id      string
	revoked int
}

func (r *fakeResource) ID() string  { return r.id }
func (r *fakeResource) URL() string { return "/clips/" + r.id }
func (r *fakeResource) Revoke() error {
	r.revoked++
	return nil
}

// fakeSurface records commands and lets tests move the playhead.
type fakeSurface struct {
	loaded   Resource
	position float64
	duration float64
	playing  bool
	ended    bool

	durations map[string]float64

	loads   []string
	seeks   []float64
	pauses  int
	playErr error
}

func (s *fakeSurface) Load(res Resource) error {
	s.loaded = res
	s.loads = append(s.loads, res.ID())
	s.position = 0
	s.duration = s.durations[res.ID()]
	s.ended = false
	return nil
}

func (s *fakeSurface) Seek(position float64) {
	s.seeks = append(s.seeks, position)
	s.position = position
}

func (s *fakeSurface) Play() error {
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = true
	return nil
}

func (s *fakeSurface) Pause() {
	s.pauses++
	s.playing = false
}

func (s *fakeSurface) Position() float64 { return s.position }
func (s *fakeSurface) Duration() float64 { return s.duration }
func (s *fakeSurface) Ended() bool       { return s.ended }

var errPlaybackRejected = errors.New("playback rejected")
