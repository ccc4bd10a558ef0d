package export

import (
	"strings"
	"testing"

	"github.com/grafov/m3u8"
)

func TestGeneratePlaylist(t *testing.T) {
	cuts := []Cut{
		{Index: 1, URL: "/clips/a", Label: "Sunrise", In: 1, Out: 3},
		{Index: 2, URL: "/clips/b", In: 0, Out: 8.25},
	}

	out, err := GeneratePlaylist(cuts, "http://127.0.0.1:8790/")
	if err != nil {
		t.Fatalf("GeneratePlaylist() error: %v", err)
	}

	if !strings.Contains(out, "#EXT-X-ENDLIST") {
		t.Errorf("playlist should be closed: %q", out)
	}
	if !strings.Contains(out, "#EXT-X-PLAYLIST-TYPE:VOD") {
		t.Errorf("playlist should be VOD: %q", out)
	}
	if strings.Count(out, "#EXT-X-DISCONTINUITY") != 1 {
		t.Errorf("expected one discontinuity: %q", out)
	}

	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(out), true)
	if err != nil {
		t.Fatalf("DecodeFrom() error: %v", err)
	}
	if listType != m3u8.MEDIA {
		t.Fatalf("list type = %v, want media", listType)
	}
	media := playlist.(*m3u8.MediaPlaylist)

	var segments []*m3u8.MediaSegment
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		segments = append(segments, seg)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}

	if segments[0].URI != "http://127.0.0.1:8790/clips/a#t=1,3" {
		t.Errorf("first URI = %q", segments[0].URI)
	}
	if segments[0].Duration != 2 {
		t.Errorf("first duration = %v, want 2", segments[0].Duration)
	}
	if segments[0].Discontinuity {
		t.Error("first segment should not be discontinuous")
	}
	if segments[1].URI != "http://127.0.0.1:8790/clips/b#t=0,8.25" {
		t.Errorf("second URI = %q", segments[1].URI)
	}
	if !segments[1].Discontinuity {
		t.Error("second segment should follow a discontinuity")
	}
	if media.TargetDuration < 8.25 {
		t.Errorf("target duration = %v, want >= 8.25", media.TargetDuration)
	}
}

func TestGeneratePlaylist_Empty(t *testing.T) {
	if _, err := GeneratePlaylist(nil, ""); err == nil {
		t.Error("expected error for empty sequence")
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{1.5, "1.5"},
		{2.125, "2.125"},
		{3.0004, "3"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
