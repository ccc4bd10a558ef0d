package export

import (
	"strings"
	"testing"

	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

func TestGenerateEDL_SingleClip(t *testing.T) {
	cuts := []Cut{{
		Index: 0,
		Label: "Intro",
		URL:   "/clips/intro",
		In:    0,
		Out:   2,
	}}

	edl := GenerateEDL(cuts, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /clips/intro") {
		t.Fatalf("missing media path comment: %q", edl)
	}
	if strings.Contains(edl, "TRANSITION") {
		t.Fatalf("unexpected transition comment: %q", edl)
	}
}

func TestGenerateEDL_TrimmedSequence(t *testing.T) {
	cuts := []Cut{
		{Index: 1, URL: "/clips/a", In: 1, Out: 3},
		{Index: 2, URL: "/clips/b", In: 0.5, Out: 2, Transition: studio.TransitionFade},
	}

	edl := GenerateEDL(cuts, "Multi", 30.0)

	if !strings.Contains(edl, "001  AX       V     C        00:00:01:00 00:00:03:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:15 00:00:02:00 00:00:02:00 00:00:03:15") {
		t.Fatalf("second event line mismatch or bad record offset: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Segment 2") {
		t.Fatalf("default clip name missing: %q", edl)
	}
	if !strings.Contains(edl, "* TRANSITION:  FADE 00:00:00:15") {
		t.Fatalf("fade transition comment missing: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	cuts := []Cut{{Label: "Clip", URL: "/clips/x", In: 0, Out: 1}}
	edl := GenerateEDL(cuts, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
	if !strings.Contains(edl, "00:00:00;00 00:00:01;00 00:00:00;00 00:00:01;00") {
		t.Fatalf("expected drop frame timecodes, got: %q", edl)
	}
}

func TestTimebase_Frames(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		ms   int
		want int
	}{
		{"ntsc second", 29.97, 1000, 30},
		{"ntsc minute", 29.97, 60000, 1798},
		{"thirty", 30, 500, 15},
		{"film", 24, 2000, 48},
		{"invalid rate falls back to thirty", 0, 1000, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := newTimebase(tc.rate).frames(tc.ms); got != tc.want {
				t.Fatalf("frames(%d) at %v = %d, want %d", tc.ms, tc.rate, got, tc.want)
			}
		})
	}
}

func TestTimebase_Timecode(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		frame int
		want  string
	}{
		{"zero", 30, 0, "00:00:00:00"},
		{"half second", 30, 15, "00:00:00:15"},
		{"one minute", 30, 1800, "00:01:00:00"},
		{"one hour", 30, 108000, "01:00:00:00"},
		{"film second", 24, 24, "00:00:01:00"},
		{"df before first drop", 29.97, 1799, "00:00:59;29"},
		{"df skips two numbers", 29.97, 1800, "00:01:00;02"},
		{"df tenth minute keeps numbers", 29.97, 17982, "00:10:00;00"},
		{"df one hour", 29.97, 107892, "01:00:00;00"},
		{"df 59.94 skips four", 59.94, 3600, "00:01:00;04"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := newTimebase(tc.rate).timecode(tc.frame); got != tc.want {
				t.Fatalf("timecode(%d) at %v = %q, want %q", tc.frame, tc.rate, got, tc.want)
			}
		})
	}
}
