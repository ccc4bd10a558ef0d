// Package genai talks to the generative text and video endpoints that turn a
// niche and topic into a short-video script and each script segment's visual
// cue into a preview clip.
package genai

import (
	"context"
	"io"
)

// DefaultTone is used when the caller does not ask for a specific tone.
const DefaultTone = "engaging"

// Segment is one timed unit of a generated script.
type Segment struct {
	VisualCue   string `json:"visualCue"`
	AudioScript string `json:"audioScript"`
	Duration    string `json:"duration"` // display label such as "3s"
}

// Script is the structured result of script generation.
type Script struct {
	Title    string    `json:"title"`
	Hook     string    `json:"hook"`
	Caption  string    `json:"caption"`
	Segments []Segment `json:"segments"`
	Hashtags []string  `json:"hashtags"`
}

// Video is a generated clip's downloaded bytes. The caller closes Body.
type Video struct {
	Body        io.ReadCloser
	ContentType string
	SourceURI   string
}

type ScriptGenerator interface {
	GenerateScript(ctx context.Context, nicheTitle, topic, tone string) (*Script, error)
}

type ClipGenerator interface {
	GenerateClip(ctx context.Context, prompt string) (*Video, error)
}
