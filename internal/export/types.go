// Package export renders a session's trimmed clip sequence as edit
// decision lists and playlists. No media is re-encoded.
package export

import (
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

// Cut is one clip of the sequence with its effective in and out points in
// seconds.
type Cut struct {
	Index      int
	ClipID     string
	URL        string
	Label      string
	In         float64
	Out        float64
	Transition studio.Transition
}

func (c Cut) Duration() float64 {
	return c.Out - c.In
}

// BuildTimeline lists the clips the sequence player would visit, in order,
// with the trims it would apply. Clips whose end is not yet known or whose
// trim is empty are returned in skipped instead.
func BuildTimeline(reg *studio.Registry, settings *studio.SettingsStore) (cuts []Cut, skipped []int) {
	for _, index := range reg.Indices() {
		res, _ := reg.Get(index)
		cs, ok := settings.Get(index)
		if !ok {
			skipped = append(skipped, index)
			continue
		}

		in := cs.TrimStart
		if in < 0 {
			in = 0
		}
		out := cs.TrimEnd
		if out <= 0 || (cs.Duration > 0 && out > cs.Duration) {
			out = cs.Duration
		}
		if out <= in {
			skipped = append(skipped, index)
			continue
		}

		cuts = append(cuts, Cut{
			Index:      index,
			ClipID:     res.ID(),
			URL:        res.URL(),
			In:         in,
			Out:        out,
			Transition: cs.Transition,
		})
	}
	return cuts, skipped
}
