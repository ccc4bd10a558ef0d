package session

import (
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

type Status string

const (
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
	StatusClosed     Status = "closed"
)

type ClipStatus string

const (
	ClipPending    ClipStatus = "pending"
	ClipGenerating ClipStatus = "generating"
	ClipReady      ClipStatus = "ready"
	ClipFailed     ClipStatus = "failed"
)

type LoadingStep struct {
	Text    string `json:"text"`
	Subtext string `json:"subtext"`
}

func loadingSteps(nicheTitle string) []LoadingStep {
	return []LoadingStep{
		{"Analyzing viral patterns...", "Scanning top performing " + nicheTitle + " content"},
		{"Crafting the hook...", "Writing the first 3 seconds to grab attention"},
		{"Designing visuals...", "Selecting faceless stock footage cues"},
		{"Writing script...", "Composing the voiceover narrative"},
		{"Optimizing hashtags...", "Selecting tags for maximum reach"},
	}
}

// Event types pushed to subscribers.
const (
	EventSession = "session"
	EventPlayer  = "player"
	EventCommand = "command"
)

type Event struct {
	Type    string           `json:"type"`
	Session *View            `json:"session,omitempty"`
	Player  *studio.Snapshot `json:"player,omitempty"`
	Command *Command         `json:"command,omitempty"`
}

type ClipRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type PreviewView struct {
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Display  string  `json:"display"`
}

type SegmentView struct {
	Index       int                 `json:"index"`
	VisualCue   string              `json:"visual_cue"`
	AudioScript string              `json:"audio_script"`
	Duration    string              `json:"duration"`
	ClipStatus  ClipStatus          `json:"clip_status,omitempty"`
	Clip        *ClipRef            `json:"clip,omitempty"`
	Settings    studio.ClipSettings `json:"settings"`
	Preview     *PreviewView        `json:"preview,omitempty"`
}

// View is the full observable state of a session.
type View struct {
	ID             string          `json:"id"`
	NicheID        string          `json:"niche_id"`
	NicheTitle     string          `json:"niche_title"`
	Topic          string          `json:"topic"`
	Tone           string          `json:"tone"`
	Status         Status          `json:"status"`
	LoadingStep    int             `json:"loading_step"`
	Loading        *LoadingStep    `json:"loading,omitempty"`
	Script         *genai.Script   `json:"script,omitempty"`
	Segments       []SegmentView   `json:"segments"`
	Player         studio.Snapshot `json:"player"`
	Notices        []Notice        `json:"notices"`
	ReauthRequired bool            `json:"reauth_required"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Summary is the list form of a session.
type Summary struct {
	ID         string    `json:"id"`
	NicheID    string    `json:"niche_id"`
	NicheTitle string    `json:"niche_title"`
	Topic      string    `json:"topic"`
	Title      string    `json:"title,omitempty"`
	Status     Status    `json:"status"`
	Playing    bool      `json:"playing"`
	Segments   int       `json:"segments"`
	Clips      int       `json:"clips"`
	CreatedAt  time.Time `json:"created_at"`
}
