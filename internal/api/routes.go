package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/reelsmith/reelsmith-agent/internal/config"
	"github.com/reelsmith/reelsmith-agent/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Video elements cannot send an Authorization header; clip ids are
	// unguessable and only local clients are served.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/clips/{id}", clipHandler(cfg))
		r.Head("/clips/{id}", clipHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/categories", categoriesHandler(cfg))
		r.Get("/niches", nichesHandler(cfg))
		r.Get("/credentials", getCredentialsHandler(cfg))
		r.Put("/credentials", putCredentialsHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/history", historyHandler(cfg))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", createSessionHandler(cfg))
			r.Get("/", listSessionsHandler(cfg))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", getSessionHandler(cfg))
				r.Delete("/", closeSessionHandler(cfg))
				r.Get("/script.txt", scriptTextHandler(cfg))
				r.Get("/ws", sessionSocketHandler(cfg))
				r.Post("/play", playHandler(cfg))
				r.Post("/stop", stopHandler(cfg))
				r.Get("/player", playerHandler(cfg))
				r.Delete("/notices/{noticeID}", dismissNoticeHandler(cfg))
				r.Get("/export.edl", exportEDLHandler(cfg))
				r.Get("/export.m3u8", exportPlaylistHandler(cfg))

				r.Route("/segments/{index}", func(r chi.Router) {
					r.Post("/clip", requestClipHandler(cfg))
					r.Delete("/clip", removeClipHandler(cfg))
					r.Patch("/settings", updateSettingsHandler(cfg))
					r.Post("/duration", recordDurationHandler(cfg))
				})
			})
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		resp := StatusResponse{State: "idle"}

		if cfg.Sessions != nil {
			resp.SessionsOpen = cfg.Sessions.Count()
			resp.SessionsPlaying = cfg.Sessions.PlayingCount()
		}
		if cfg.Queue != nil {
			resp.ClipJobsRunning = cfg.Queue.ActiveCount()
			resp.RunnerPaused = cfg.Queue.IsPaused()
		}
		if cfg.Clips != nil {
			resp.ClipsCached = cfg.Clips.Count()
			resp.CacheBytes = cfg.Clips.Size()
		}
		resp.CacheSize = humanize.Bytes(uint64(resp.CacheBytes))
		if cfg.Credentials != nil {
			resp.CredentialRequired = !cfg.Credentials.HasCredential()
		}
		if n, err := cfg.Repository.CountScripts(ctx); err == nil {
			resp.ScriptsGenerated = n
		}

		jobs, _ := cfg.Repository.ListJobs(ctx, 10)
		for _, j := range jobs {
			if j.Status == store.JobStatusFailed {
				resp.LastError = j.Error
				break
			}
		}

		switch {
		case resp.SessionsPlaying > 0:
			resp.State = "playing"
		case resp.ClipJobsRunning > 0:
			resp.State = "generating"
		case resp.RunnerPaused:
			resp.State = "paused"
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func categoriesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: cfg.Catalog.Categories()})
	}
}

func nichesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		niches := cfg.Catalog.Filter(q.Get("category"), q.Get("q"))

		resp := NichesResponse{Niches: make([]NicheResponse, len(niches))}
		for i, n := range niches {
			resp.Niches[i] = NicheToResponse(n)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getCredentialsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CredentialsResponse{
			HasCredential: cfg.Credentials.HasCredential(),
			PromptPending: cfg.Credentials.PromptPending(),
		})
	}
}

func putCredentialsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Credentials.SetAPIKey(r.Context(), req.APIKey); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		cfg.Sessions.ClearReauth()

		WriteJSON(w, http.StatusOK, CredentialsResponse{
			HasCredential: cfg.Credentials.HasCredential(),
			PromptPending: cfg.Credentials.PromptPending(),
		})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), listLimit(r))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scripts, err := cfg.Repository.ListScripts(r.Context(), listLimit(r))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list scripts", "INTERNAL_ERROR")
			return
		}
		if scripts == nil {
			scripts = []*store.ScriptRecord{}
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Scripts: scripts})
	}
}

func listLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
