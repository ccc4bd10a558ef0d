// Package store persists agent settings, script history and clip
// generation jobs in SQLite.
package store

import "time"

const (
	JobTypeGenerateClip = "generate_clip"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	SessionID    string    `json:"session_id"`
	SegmentIndex int       `json:"segment_index"`
	Prompt       string    `json:"prompt"`
	ClipID       string    `json:"clip_id,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScriptRecord is one generated script kept for history. Body holds the
// script as JSON.
type ScriptRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	NicheID    string    `json:"niche_id"`
	NicheTitle string    `json:"niche_title"`
	Topic      string    `json:"topic"`
	Tone       string    `json:"tone"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
