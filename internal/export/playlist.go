package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
)

// GeneratePlaylist renders cuts as a closed VOD media playlist. Each entry
// points at the clip URL with a media fragment selecting the trimmed range,
// and a discontinuity separates consecutive clips.
func GeneratePlaylist(cuts []Cut, baseURL string) (string, error) {
	if len(cuts) == 0 {
		return "", fmt.Errorf("no clips to export")
	}

	playlist, err := m3u8.NewMediaPlaylist(0, uint(len(cuts)))
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	playlist.MediaType = m3u8.VOD

	base := strings.TrimRight(baseURL, "/")
	for i, cut := range cuts {
		uri := fmt.Sprintf("%s%s#t=%s,%s", base, cut.URL, formatSeconds(cut.In), formatSeconds(cut.Out))
		title := cut.Label
		if title == "" {
			title = fmt.Sprintf("Segment %d", cut.Index+1)
		}
		if err := playlist.Append(uri, cut.Duration(), title); err != nil {
			return "", fmt.Errorf("failed to add clip %d: %w", cut.Index, err)
		}
		if i > 0 {
			if err := playlist.SetDiscontinuity(); err != nil {
				return "", fmt.Errorf("failed to mark discontinuity: %w", err)
			}
		}
	}
	playlist.Close()

	return playlist.String(), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(math.Round(s*1000)/1000, 'f', -1, 64)
}
