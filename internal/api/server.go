package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/clipstore"
	"github.com/reelsmith/reelsmith-agent/internal/playback"
	"github.com/reelsmith/reelsmith-agent/internal/session"
	"github.com/reelsmith/reelsmith-agent/internal/store"
)

// ClipQueue accepts clip generation requests.
type ClipQueue interface {
	Enqueue(ctx context.Context, sessionID string, index int, prompt string) (*store.Job, error)
	ActiveCount() int
	IsPaused() bool
}

// ClipSource resolves clip ids to stored clips.
type ClipSource interface {
	Lookup(id string) (*clipstore.Clip, error)
	Count() int
	Size() int64
}

// CredentialStore holds the generative API key.
type CredentialStore interface {
	HasCredential() bool
	PromptPending() bool
	SetAPIKey(ctx context.Context, key string) error
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port           int
	Sessions       *session.Manager
	Catalog        *catalog.Catalog
	Credentials    CredentialStore
	Queue          ClipQueue
	Clips          ClipSource
	PlaybackServer playback.PlaybackService
	Repository     store.Repository
	Logger         *slog.Logger
	StartTime      time.Time
	DeviceID       string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
