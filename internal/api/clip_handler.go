package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelsmith/reelsmith-agent/internal/clipstore"
)

func clipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		clip, err := cfg.Clips.Lookup(id)
		switch {
		case errors.Is(err, clipstore.ErrRevoked):
			WriteError(w, http.StatusGone, "clip has been released", "CLIP_REVOKED")
			return
		case errors.Is(err, clipstore.ErrNotFound):
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		case err != nil:
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		err = cfg.PlaybackServer.ServeClip(w, r, clip)
		if errors.Is(err, clipstore.ErrRevoked) {
			// Released between lookup and open; nothing has been written yet.
			WriteError(w, http.StatusGone, "clip has been released", "CLIP_REVOKED")
			return
		}
		if err != nil {
			cfg.Logger.Error("playback error", "error", err, "clip_id", id)
		}
	}
}
