package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/store"
)

// HistoryStore keeps generated scripts after their session is gone.
type HistoryStore interface {
	SaveScript(ctx context.Context, s *store.ScriptRecord) error
}

type ManagerConfig struct {
	Scripts         genai.ScriptGenerator
	Credentials     genai.CredentialProvider
	History         HistoryStore
	FrameInterval   time.Duration
	LoadingInterval time.Duration
	Logger          *slog.Logger

	// OnClose is called after a session is closed and removed.
	OnClose func(id string)
}

type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session for niche and topic and starts generating its
// script in the background.
func (m *Manager) Create(niche catalog.Niche, topic, tone string) (*Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = genai.DefaultTone
	}
	if m.ctx.Err() != nil {
		return nil, ErrSessionClosed
	}

	s := newSession(uuid.New().String(), niche, topic, tone, Options{
		FrameInterval:   m.cfg.FrameInterval,
		LoadingInterval: m.cfg.LoadingInterval,
		Credentials:     m.cfg.Credentials,
		Logger:          m.logger,
	})

	genCtx, genCancel := context.WithCancel(m.ctx)
	s.mu.Lock()
	s.genCancel = genCancel
	s.startLoading()
	s.mu.Unlock()

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.id, "niche", niche.ID, "topic", topic)

	m.wg.Add(1)
	go m.generate(genCtx, genCancel, s)

	return s, nil
}

func (m *Manager) generate(ctx context.Context, cancel context.CancelFunc, s *Session) {
	defer m.wg.Done()
	defer cancel()

	script, err := m.cfg.Scripts.GenerateScript(ctx, s.niche.Title, s.topic, s.tone)
	if resolveErr := s.resolveScript(script, err); resolveErr != nil {
		s.logger.Debug("discarding script for closed session")
		return
	}
	if err != nil || m.cfg.History == nil {
		return
	}

	body, err := json.Marshal(script)
	if err != nil {
		s.logger.Warn("failed to encode script for history", "error", err)
		return
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()

	record := &store.ScriptRecord{
		ID:         uuid.New().String(),
		SessionID:  s.id,
		NicheID:    s.niche.ID,
		NicheTitle: s.niche.Title,
		Topic:      s.topic,
		Tone:       s.tone,
		Title:      script.Title,
		Body:       string(body),
		CreatedAt:  time.Now(),
	}
	if err := m.cfg.History.SaveScript(saveCtx, record); err != nil {
		s.logger.Warn("failed to save script history", "error", err)
	}
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns summaries of open sessions, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PlayingCount is the number of sessions whose sequence is playing.
func (m *Manager) PlayingCount() int {
	n := 0
	for _, sum := range m.List() {
		if sum.Playing {
			n++
		}
	}
	return n
}

// Close closes and forgets the session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	err := s.Close()
	if m.cfg.OnClose != nil {
		m.cfg.OnClose(id)
	}
	return err
}

// CloseAll closes every session and waits for background script
// generation to return. The manager accepts no new sessions afterwards.
func (m *Manager) CloseAll() error {
	m.cancel()

	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Close(id); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}

	m.wg.Wait()
	return errors.Join(errs...)
}

// StopAll stops sequence playback in every session and returns how many
// were playing.
func (m *Manager) StopAll() int {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	stopped := 0
	for _, s := range sessions {
		if s.PlayerState().Playing {
			s.Stop()
			stopped++
		}
	}
	if stopped > 0 {
		m.logger.Info("stopped all playback", "sessions", stopped)
	}
	return stopped
}

// ClearReauth removes re-authorization prompts from every session.
func (m *Manager) ClearReauth() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.ClearReauth()
	}
}
