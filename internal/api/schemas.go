package api

import (
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/session"
	"github.com/reelsmith/reelsmith-agent/internal/store"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State              string `json:"state"`
	LastError          string `json:"last_error,omitempty"`
	SessionsOpen       int    `json:"sessions_open"`
	SessionsPlaying    int    `json:"sessions_playing"`
	ClipJobsRunning    int    `json:"clip_jobs_running"`
	RunnerPaused       bool   `json:"runner_paused"`
	ClipsCached        int    `json:"clips_cached"`
	CacheSize          string `json:"cache_size"`
	CacheBytes         int64  `json:"cache_bytes"`
	ScriptsGenerated   int    `json:"scripts_generated"`
	CredentialRequired bool   `json:"credential_required"`
}

type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
}

type NicheResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Glyph       string `json:"glyph"`
	Category    string `json:"category"`
	Gradient    string `json:"gradient,omitempty"`
}

type NichesResponse struct {
	Niches []NicheResponse `json:"niches"`
}

type CredentialsRequest struct {
	APIKey string `json:"api_key"`
}

type CredentialsResponse struct {
	HasCredential bool `json:"has_credential"`
	PromptPending bool `json:"prompt_pending"`
}

type CreateSessionRequest struct {
	NicheID string `json:"niche_id"`
	Topic   string `json:"topic"`
	Tone    string `json:"tone,omitempty"`
}

type SessionsResponse struct {
	Sessions []session.Summary `json:"sessions"`
}

type ClipRequestResponse struct {
	JobID  string `json:"job_id"`
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
}

// SettingsPatchRequest is a partial settings edit. Absent fields are left
// unchanged.
type SettingsPatchRequest struct {
	TrimStart  *float64 `json:"trim_start,omitempty"`
	TrimEnd    *float64 `json:"trim_end,omitempty"`
	Transition *string  `json:"transition,omitempty"`
}

type DurationRequest struct {
	Duration float64 `json:"duration"`
}

type PlayResponse struct {
	Started bool            `json:"started"`
	Player  studio.Snapshot `json:"player"`
}

type JobResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	SessionID    string `json:"session_id"`
	SegmentIndex int    `json:"segment_index"`
	ClipID       string `json:"clip_id,omitempty"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type HistoryResponse struct {
	Scripts []*store.ScriptRecord `json:"scripts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func NicheToResponse(n catalog.Niche) NicheResponse {
	return NicheResponse{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Icon:        string(n.Icon),
		Glyph:       n.Icon.Glyph(),
		Category:    n.Category,
		Gradient:    n.Gradient,
	}
}

func JobToResponse(j *store.Job) JobResponse {
	return JobResponse{
		ID:           j.ID,
		Type:         j.Type,
		Status:       j.Status,
		SessionID:    j.SessionID,
		SegmentIndex: j.SegmentIndex,
		ClipID:       j.ClipID,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
}
