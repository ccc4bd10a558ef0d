package studio

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoClip = errors.New("no clip attached")

// Preview plays a single clip on its own surface for scrubbing. It has no
// connection to the sequence Player.
type Preview struct {
	surface  Surface
	resource Resource
	playing  bool
	position float64
	duration float64
}

func NewPreview(surface Surface) *Preview {
	return &Preview{surface: surface}
}

// Attach points the preview at res, resetting position and play state.
func (p *Preview) Attach(res Resource) error {
	p.Detach()
	if err := p.surface.Load(res); err != nil {
		return fmt.Errorf("load preview clip: %w", err)
	}
	p.resource = res
	return nil
}

// Detach pauses the surface and forgets the current clip.
func (p *Preview) Detach() {
	if p.resource != nil {
		p.surface.Pause()
	}
	p.resource = nil
	p.playing = false
	p.position = 0
	p.duration = 0
}

func (p *Preview) Resource() Resource {
	return p.resource
}

// Toggle pauses a playing preview or starts a paused one.
func (p *Preview) Toggle() error {
	if p.resource == nil {
		return ErrNoClip
	}
	if p.playing {
		p.surface.Pause()
		p.playing = false
		return nil
	}
	if err := p.surface.Play(); err != nil {
		return fmt.Errorf("play preview: %w", err)
	}
	p.playing = true
	return nil
}

// Seek jumps to an absolute position in seconds.
func (p *Preview) Seek(position float64) error {
	if p.resource == nil {
		return ErrNoClip
	}
	if position < 0 || math.IsNaN(position) {
		position = 0
	}
	p.surface.Seek(position)
	p.position = position
	return nil
}

// Observe refreshes position and duration from the surface.
func (p *Preview) Observe() {
	if p.resource == nil {
		return
	}
	p.position = p.surface.Position()
	if d := p.surface.Duration(); d > 0 {
		p.duration = d
	}
	if p.playing && p.surface.Ended() {
		p.playing = false
	}
}

func (p *Preview) Playing() bool {
	return p.playing
}

func (p *Preview) Position() float64 {
	return p.position
}

func (p *Preview) Duration() float64 {
	return p.duration
}

// Display is the position formatted for the preview's time readout.
func (p *Preview) Display() string {
	return FormatTime(p.position)
}

// FormatTime renders seconds as M:SS with unpadded minutes.
func FormatTime(secs float64) string {
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		secs = 0
	}
	total := int(math.Floor(secs))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
