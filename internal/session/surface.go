package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

// ErrNoViewer is returned when playback is requested but no browser is
// attached to render it.
var ErrNoViewer = errors.New("no playback surface attached")

const (
	TargetSequence      = "sequence"
	targetPreviewPrefix = "preview:"
)

// Command operations sent to the browser.
const (
	OpLoad  = "load"
	OpSeek  = "seek"
	OpPlay  = "play"
	OpPause = "pause"
)

// Command tells the browser what to do with one of its video elements.
type Command struct {
	Target   string  `json:"target"`
	Op       string  `json:"op"`
	ClipID   string  `json:"clip_id,omitempty"`
	URL      string  `json:"url,omitempty"`
	Position float64 `json:"position,omitempty"`
	// Load numbers each OpLoad on a target. Reports must echo it.
	Load uint64 `json:"load,omitempty"`
}

// Report is the browser's account of a video element's progress.
type Report struct {
	Target   string  `json:"target"`
	Load     uint64  `json:"load"`
	ClipID   string  `json:"clip_id"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Ended    bool    `json:"ended"`
	Error    string  `json:"error,omitempty"`
}

func PreviewTarget(index int) string {
	return targetPreviewPrefix + strconv.Itoa(index)
}

func parsePreviewTarget(target string) (int, bool) {
	rest, ok := strings.CutPrefix(target, targetPreviewPrefix)
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// RemoteSurface is a studio.Surface rendered by a browser video element.
// Commands go out through emit and the element's state comes back through
// report. It is guarded by the owning session's lock.
type RemoteSurface struct {
	target   string
	emit     func(Command)
	attached func() bool

	clip     studio.Resource
	loads    uint64
	position float64
	duration float64
	ended    bool
}

func newRemoteSurface(target string, emit func(Command), attached func() bool) *RemoteSurface {
	return &RemoteSurface{target: target, emit: emit, attached: attached}
}

func (r *RemoteSurface) Load(res studio.Resource) error {
	if res == nil {
		return fmt.Errorf("load %s: nil clip", r.target)
	}
	r.clip = res
	r.loads++
	r.position = 0
	r.duration = 0
	r.ended = false
	r.emit(Command{Target: r.target, Op: OpLoad, ClipID: res.ID(), URL: res.URL(), Load: r.loads})
	return nil
}

func (r *RemoteSurface) Seek(position float64) {
	r.position = position
	r.ended = false
	r.emit(Command{Target: r.target, Op: OpSeek, Position: position})
}

func (r *RemoteSurface) Play() error {
	if !r.attached() {
		return ErrNoViewer
	}
	r.emit(Command{Target: r.target, Op: OpPlay})
	return nil
}

func (r *RemoteSurface) Pause() {
	r.emit(Command{Target: r.target, Op: OpPause})
}

func (r *RemoteSurface) Position() float64 { return r.position }
func (r *RemoteSurface) Duration() float64 { return r.duration }
func (r *RemoteSurface) Ended() bool       { return r.ended }

// report applies a browser report. Reports from an earlier load, including
// an earlier load of the same clip, are stale and ignored.
func (r *RemoteSurface) report(rep Report) bool {
	if r.clip == nil || rep.Load != r.loads || rep.ClipID != r.clip.ID() {
		return false
	}
	r.position = finite(rep.Position)
	if d := finite(rep.Duration); d > 0 {
		r.duration = d
	}
	r.ended = rep.Ended
	return true
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
