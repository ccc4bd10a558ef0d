package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/reelsmith/reelsmith-agent/internal/export"
)

const defaultFrameRate = 30.0

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}

		frameRate := defaultFrameRate
		if v := r.URL.Query().Get("fps"); v != "" {
			fps, err := strconv.ParseFloat(v, 64)
			if err != nil || fps <= 0 || fps > 240 {
				WriteError(w, http.StatusBadRequest, "fps must be a positive number", "BAD_REQUEST")
				return
			}
			frameRate = fps
		}

		title, cuts, _, err := s.Timeline()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if len(cuts) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips are ready to export", "NO_CLIPS")
			return
		}

		name := export.SanitizeName(title, 120)
		if name == "" {
			name = "reelsmith_export"
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".edl"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(export.GenerateEDL(cuts, name, frameRate)))
	}
}

func exportPlaylistHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}

		_, cuts, _, err := s.Timeline()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		if len(cuts) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no clips are ready to export", "NO_CLIPS")
			return
		}

		playlist, err := export.GeneratePlaylist(cuts, "http://"+r.Host)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(playlist))
	}
}
