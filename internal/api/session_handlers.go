package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/session"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

// writeSessionError maps session and studio errors onto HTTP responses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
	case errors.Is(err, session.ErrSessionClosed):
		WriteError(w, http.StatusGone, err.Error(), "SESSION_CLOSED")
	case errors.Is(err, session.ErrScriptPending):
		WriteError(w, http.StatusConflict, err.Error(), "SCRIPT_PENDING")
	case errors.Is(err, session.ErrClipInProgress):
		WriteError(w, http.StatusConflict, err.Error(), "CLIP_IN_PROGRESS")
	case errors.Is(err, session.ErrNoticeNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, session.ErrTopicRequired):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, studio.ErrIndexOutOfRange):
		WriteError(w, http.StatusNotFound, err.Error(), "SEGMENT_NOT_FOUND")
	case errors.Is(err, studio.ErrNoClip):
		WriteError(w, http.StatusConflict, err.Error(), "NO_CLIP")
	case errors.Is(err, catalog.ErrNicheNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NICHE_NOT_FOUND")
	case errors.Is(err, genai.ErrCredentialRequired):
		WriteError(w, http.StatusPreconditionRequired, err.Error(), "CREDENTIAL_REQUIRED")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

func sessionFor(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

func segmentIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "segment index must be an integer", "BAD_REQUEST")
		return 0, false
	}
	return index, true
}

func createSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.NicheID == "" {
			WriteError(w, http.StatusBadRequest, "niche_id is required", "BAD_REQUEST")
			return
		}

		niche, err := cfg.Catalog.Niche(req.NicheID)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		s, err := cfg.Sessions.Create(niche, req.Topic, req.Tone)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, s.View())
	}
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SessionsResponse{Sessions: cfg.Sessions.List()})
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.View())
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Sessions.Close(chi.URLParam(r, "id")); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func scriptTextHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		text, err := s.CopyText()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(text))
	}
}

func requestClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		index, ok := segmentIndex(w, r)
		if !ok {
			return
		}

		prompt, err := s.RequestClip(r.Context(), index)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		job, err := cfg.Queue.Enqueue(r.Context(), s.ID(), index, prompt)
		if err != nil {
			s.ClipFailed(index, err)
			WriteError(w, http.StatusInternalServerError, "failed to queue clip generation", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, ClipRequestResponse{
			JobID:  job.ID,
			Index:  index,
			Prompt: prompt,
		})
	}
}

func removeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		index, ok := segmentIndex(w, r)
		if !ok {
			return
		}
		if err := s.RemoveClip(index); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateSettingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		index, ok := segmentIndex(w, r)
		if !ok {
			return
		}

		var req SettingsPatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		patch := studio.SettingsPatch{TrimStart: req.TrimStart, TrimEnd: req.TrimEnd}
		if req.Transition != nil {
			t, err := studio.ParseTransition(*req.Transition)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
			patch.Transition = &t
		}

		updated, err := s.UpdateSettings(index, patch)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	}
}

func recordDurationHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		index, ok := segmentIndex(w, r)
		if !ok {
			return
		}

		var req DurationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Duration <= 0 {
			WriteError(w, http.StatusBadRequest, "duration must be positive", "BAD_REQUEST")
			return
		}

		updated, err := s.RecordDuration(index, req.Duration)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		started, err := s.Play()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, PlayResponse{Started: started, Player: s.PlayerState()})
	}
}

func stopHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		s.Stop()
		WriteJSON(w, http.StatusOK, s.PlayerState())
	}
}

func playerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, s.PlayerState())
	}
}

func dismissNoticeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}
		if err := s.DismissNotice(chi.URLParam(r, "noticeID")); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
