package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

// GenerateEDL renders cuts as a CMX3600 edit decision list. Record times are
// contiguous, so the list describes the sequence as one timeline.
func GenerateEDL(cuts []Cut, title string, frameRate float64) string {
	tb := newTimebase(frameRate)

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if tb.drop {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	record := 0
	for i, cut := range cuts {
		srcIn := tb.frames(secondsToMs(cut.In))
		srcOut := tb.frames(secondsToMs(cut.Out))
		length := srcOut - srcIn

		name := cut.Label
		if name == "" {
			name = fmt.Sprintf("Segment %d", cut.Index+1)
		}

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				tb.timecode(srcIn), tb.timecode(srcOut), tb.timecode(record), tb.timecode(record+length)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", name),
			fmt.Sprintf("* MEDIA PATH:  %s", cut.URL),
		)
		if cut.Transition == studio.TransitionFade {
			lines = append(lines, fmt.Sprintf("* TRANSITION:  FADE %s", tb.timecode(tb.frames(secondsToMs(studio.FadeWindow)))))
		}

		record += length
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToMs(s float64) int {
	return int(math.Round(s * 1000))
}

// timebase converts between milliseconds, frame counts and SMPTE timecode.
// 29.97 and 59.94 use drop-frame numbering.
type timebase struct {
	fps  int
	rate float64
	drop bool
}

func newTimebase(frameRate float64) timebase {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		return timebase{fps: 30, rate: 30}
	}
	drop := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01
	rate := float64(fps)
	if drop {
		rate = frameRate
	}
	return timebase{fps: fps, rate: rate, drop: drop}
}

func (tb timebase) frames(ms int) int {
	return int(math.Round(float64(ms) * tb.rate / 1000.0))
}

func (tb timebase) timecode(frame int) string {
	sep := ":"
	if tb.drop {
		frame = tb.dropFrameNumber(frame)
		sep = ";"
	}
	ff := frame % tb.fps
	totalSeconds := frame / tb.fps
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, sep, ff)
}

// dropFrameNumber adds back the frame numbers skipped at the start of every
// minute except each tenth one.
func (tb timebase) dropFrameNumber(frame int) int {
	dropped := tb.fps / 15
	perMinute := tb.fps*60 - dropped
	perTenMinutes := perMinute*10 + dropped

	tens, rem := frame/perTenMinutes, frame%perTenMinutes
	frame += dropped * 9 * tens
	if rem > dropped {
		frame += dropped * ((rem - dropped) / perMinute)
	}
	return frame
}
