package studio

import (
	"log/slog"
)

// FadeWindow is how long before a clip's effective end the transition
// overlay is signalled when the clip's transition is fade.
const FadeWindow = 0.5

type State int

const (
	StateStopped State = iota
	StatePlaying
)

func (s State) String() string {
	if s == StatePlaying {
		return "playing"
	}
	return "stopped"
}

// Snapshot is the observable player state.
type Snapshot struct {
	State         State  `json:"-"`
	Playing       bool   `json:"is_playing"`
	CurrentIndex  int    `json:"current_index"`
	Transitioning bool   `json:"is_transitioning"`
	ClipID        string `json:"clip_id,omitempty"`
}

// activation holds what was captured when a segment became active. Later
// edits to the settings store do not reach it.
type activation struct {
	resource  Resource
	trimStart float64
	trimEnd   float64
}

// Player drives one Surface through the registry's clips in index order as
// a single continuous sequence.
type Player struct {
	registry *Registry
	settings *SettingsStore
	surface  Surface
	logger   *slog.Logger

	playing       bool
	current       int
	transitioning bool
	active        activation

	onChange func(Snapshot)
}

func NewPlayer(registry *Registry, settings *SettingsStore, surface Surface, logger *slog.Logger) *Player {
	return &Player{
		registry: registry,
		settings: settings,
		surface:  surface,
		logger:   logger,
	}
}

// OnChange registers fn to be called after every observable state change.
func (p *Player) OnChange(fn func(Snapshot)) {
	p.onChange = fn
}

func (p *Player) Snapshot() Snapshot {
	snap := Snapshot{
		CurrentIndex:  p.current,
		Transitioning: p.transitioning,
	}
	if p.playing {
		snap.State = StatePlaying
		snap.Playing = true
		if p.active.resource != nil {
			snap.ClipID = p.active.resource.ID()
		}
	}
	return snap
}

func (p *Player) Playing() bool {
	return p.playing
}

// Play starts the sequence at the lowest index that has a clip. Playing
// while already playing restarts from that clip. It returns false when no
// clip is available, leaving the player stopped.
func (p *Player) Play() bool {
	first := p.registry.NextAvailable(0)
	if first < 0 {
		p.logger.Debug("play sequence ignored, no clips available")
		return false
	}

	p.playing = true
	p.activate(first)
	return p.playing
}

// Stop pauses the surface and returns to stopped. It is a no-op when
// already stopped.
func (p *Player) Stop() {
	if !p.playing {
		return
	}
	p.halt()
}

// Fail reports that the surface could not play the active clip.
func (p *Player) Fail(err error) {
	if !p.playing {
		return
	}
	p.logger.Warn("sequence playback failed, stopping",
		"index", p.current,
		"error", err,
	)
	p.halt()
}

// Tick runs one progress check against the surface. It is meant to be
// called once per rendered frame while playing.
func (p *Player) Tick() {
	if !p.playing {
		return
	}

	res, ok := p.registry.Get(p.current)
	if !ok {
		p.advance()
		return
	}
	if res != p.active.resource {
		// Regenerated while active: restart this segment with the new clip.
		p.activate(p.current)
		return
	}

	pos := p.surface.Position()
	end, known := p.effectiveEnd()

	if known && !p.transitioning && p.fadeEnabled() && pos >= end-FadeWindow {
		p.transitioning = true
		p.notify()
	}

	if (known && pos >= end) || p.surface.Ended() {
		p.advance()
	}
}

// activate makes index the active segment, skipping forward past segments
// that cannot be played.
func (p *Player) activate(index int) {
	for {
		if act, ok := p.prepare(index); ok {
			p.current = index
			p.transitioning = false
			p.active = act
			break
		}
		next := p.registry.NextAvailable(index + 1)
		if next < 0 {
			p.halt()
			return
		}
		index = next
	}

	if err := p.surface.Load(p.active.resource); err != nil {
		p.Fail(err)
		return
	}
	p.surface.Seek(p.active.trimStart)
	if err := p.surface.Play(); err != nil {
		p.Fail(err)
		return
	}
	p.notify()
}

func (p *Player) prepare(index int) (activation, bool) {
	res, ok := p.registry.Get(index)
	if !ok {
		return activation{}, false
	}
	settings, ok := p.settings.Get(index)
	if !ok {
		p.logger.Warn("clip has no settings, skipping", "index", index)
		return activation{}, false
	}

	start := settings.TrimStart
	if start < 0 {
		start = 0
	}
	if settings.TrimEnd > 0 && settings.TrimEnd <= start {
		p.logger.Warn("clip trim is empty, skipping",
			"index", index,
			"trim_start", settings.TrimStart,
			"trim_end", settings.TrimEnd,
		)
		return activation{}, false
	}

	return activation{resource: res, trimStart: start, trimEnd: settings.TrimEnd}, true
}

func (p *Player) advance() {
	next := p.registry.NextAvailable(p.current + 1)
	if next < 0 {
		p.logger.Debug("sequence finished", "last_index", p.current)
		p.halt()
		return
	}
	p.activate(next)
}

func (p *Player) halt() {
	p.surface.Pause()
	p.playing = false
	p.transitioning = false
	p.active = activation{}
	p.notify()
}

// effectiveEnd is the trim end, or the natural end when no trim end is set
// or the trim end lies past it. known is false while neither is available.
func (p *Player) effectiveEnd() (end float64, known bool) {
	natural := p.surface.Duration()
	end = p.active.trimEnd
	if end <= 0 {
		return natural, natural > 0
	}
	if natural > 0 && end > natural {
		end = natural
	}
	return end, true
}

// fadeEnabled reads the transition live; it only affects the overlay.
func (p *Player) fadeEnabled() bool {
	settings, ok := p.settings.Get(p.current)
	return ok && settings.Transition == TransitionFade
}

func (p *Player) notify() {
	if p.onChange != nil {
		p.onChange(p.Snapshot())
	}
}
