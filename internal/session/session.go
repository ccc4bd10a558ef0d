// Package session owns the state of one open editing session: the
// generated script, its clips and edit settings, the sequence player and
// the per-clip previews. Every mutation goes through the session's lock, so
// the studio types underneath only ever see one caller at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/export"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/logging"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrSessionClosed  = errors.New("session closed")
	ErrScriptPending  = errors.New("script not ready")
	ErrClipInProgress = errors.New("clip generation already in progress")
	ErrTopicRequired  = errors.New("topic is required")
)

const (
	DefaultFrameInterval   = 16 * time.Millisecond
	DefaultLoadingInterval = 1500 * time.Millisecond

	subscriberBuffer = 64
)

type Options struct {
	FrameInterval   time.Duration
	LoadingInterval time.Duration
	Credentials     genai.CredentialProvider
	Logger          *slog.Logger
}

type Session struct {
	id        string
	niche     catalog.Niche
	topic     string
	tone      string
	createdAt time.Time
	opts      Options
	logger    *slog.Logger

	mu            sync.Mutex
	status        Status
	closed        bool
	loadingStep   int
	loadingCancel context.CancelFunc
	genCancel     context.CancelFunc
	script        *genai.Script

	registry   *studio.Registry
	settings   *studio.SettingsStore
	surface    *RemoteSurface
	player     *studio.Player
	previews   map[int]*studio.Preview
	previewSrf map[int]*RemoteSurface
	clipStatus map[int]ClipStatus

	frameCancel context.CancelFunc

	notices        []Notice
	reauthRequired bool

	subscribers map[int]chan Event
	nextSub     int
}

func newSession(id string, niche catalog.Niche, topic, tone string, opts Options) *Session {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.LoadingInterval <= 0 {
		opts.LoadingInterval = DefaultLoadingInterval
	}
	return &Session{
		id:          id,
		niche:       niche,
		topic:       topic,
		tone:        tone,
		createdAt:   time.Now(),
		opts:        opts,
		logger:      logging.WithSessionID(opts.Logger, id),
		status:      StatusGenerating,
		registry:    studio.NewRegistry(0),
		settings:    studio.NewSettingsStore(),
		previews:    make(map[int]*studio.Preview),
		previewSrf:  make(map[int]*RemoteSurface),
		clipStatus:  make(map[int]ClipStatus),
		subscribers: make(map[int]chan Event),
	}
}

func (s *Session) ID() string { return s.id }

// startLoading advances the loading step on a timer until the script
// resolves or the session closes. Callers hold s.mu.
func (s *Session) startLoading() {
	ctx, cancel := context.WithCancel(context.Background())
	s.loadingCancel = cancel
	last := len(loadingSteps(s.niche.Title)) - 1

	go func() {
		ticker := time.NewTicker(s.opts.LoadingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			s.mu.Lock()
			if ctx.Err() != nil {
				s.mu.Unlock()
				return
			}
			if s.loadingStep < last {
				s.loadingStep++
				s.broadcastView()
			}
			s.mu.Unlock()
		}
	}()
}

func (s *Session) stopLoading() {
	if s.loadingCancel != nil {
		s.loadingCancel()
		s.loadingCancel = nil
	}
}

// resolveScript installs the result of script generation. It returns
// ErrSessionClosed when the session closed while the script was generating;
// the result is then discarded.
func (s *Session) resolveScript(script *genai.Script, genErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.stopLoading()
	s.genCancel = nil

	if genErr == nil && (script == nil || len(script.Segments) == 0) {
		genErr = errors.New("script has no segments")
	}
	if genErr != nil {
		s.logger.Error("script generation failed", "error", genErr)
		s.status = StatusFailed
		s.notices = append(s.notices, newNotice(NoticeScriptFailed, MessageScriptFailed, nil))
		s.broadcastView()
		return nil
	}

	n := len(script.Segments)
	s.script = script
	s.registry = studio.NewRegistry(n)
	s.settings.Initialize(n)
	s.surface = newRemoteSurface(TargetSequence, s.emitCommand, s.hasViewers)
	s.player = studio.NewPlayer(s.registry, s.settings, s.surface, s.logger)
	s.player.OnChange(s.playerChanged)
	s.status = StatusReady

	s.logger.Info("script ready", "title", script.Title, "segments", n)
	s.broadcastView()
	return nil
}

func (s *Session) usable() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.player == nil {
		return ErrScriptPending
	}
	return nil
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.script.Segments) {
		return fmt.Errorf("%w: %d", studio.ErrIndexOutOfRange, index)
	}
	return nil
}

// Play starts the sequence from the first segment that has a clip. It
// reports whether playback started.
func (s *Session) Play() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return false, err
	}
	return s.player.Play(), nil
}

// Stop halts sequence playback. Stopping a stopped session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		s.player.Stop()
	}
}

func (s *Session) PlayerState() studio.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player == nil {
		return studio.Snapshot{}
	}
	return s.player.Snapshot()
}

// playerChanged runs under s.mu from inside the player. It fans the new
// state out and keeps the frame loop running exactly while playing.
func (s *Session) playerChanged(snap studio.Snapshot) {
	s.broadcast(Event{Type: EventPlayer, Player: &snap})

	switch {
	case snap.Playing && s.frameCancel == nil:
		s.startFrames()
	case !snap.Playing && s.frameCancel != nil:
		s.frameCancel()
		s.frameCancel = nil
	}
}

func (s *Session) startFrames() {
	ctx, cancel := context.WithCancel(context.Background())
	s.frameCancel = cancel

	go func() {
		ticker := time.NewTicker(s.opts.FrameInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			s.mu.Lock()
			if ctx.Err() == nil && s.player != nil {
				s.player.Tick()
			}
			s.mu.Unlock()
		}
	}()
}

// RequestClip marks index as waiting for a clip and returns the prompt to
// generate it from. When no credential is available the credential
// provider is asked for one first.
func (s *Session) RequestClip(ctx context.Context, index int) (string, error) {
	if creds := s.opts.Credentials; creds != nil && !creds.HasCredential() {
		if err := creds.PromptForCredential(ctx); err != nil {
			s.mu.Lock()
			s.requireReauth()
			s.mu.Unlock()
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return "", err
	}
	if err := s.checkIndex(index); err != nil {
		return "", err
	}
	switch s.clipStatus[index] {
	case ClipPending, ClipGenerating:
		return "", ErrClipInProgress
	}

	s.clipStatus[index] = ClipPending
	s.broadcastView()
	return s.script.Segments[index].VisualCue, nil
}

// ClipStarted records that generation for index has begun.
func (s *Session) ClipStarted(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.clipStatus[index] = ClipGenerating
	s.broadcastView()
	return nil
}

// SetClip hands a generated clip to the session. If the session has
// closed the clip is revoked and ErrSessionClosed returned.
func (s *Session) SetClip(index int, res studio.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		if revokeErr := res.Revoke(); revokeErr != nil {
			s.logger.Warn("failed to revoke discarded clip", "clip_id", res.ID(), "error", revokeErr)
		}
		return err
	}
	if err := s.checkIndex(index); err != nil {
		if revokeErr := res.Revoke(); revokeErr != nil {
			s.logger.Warn("failed to revoke discarded clip", "clip_id", res.ID(), "error", revokeErr)
		}
		return err
	}

	if err := s.registry.Set(index, res); err != nil {
		s.logger.Warn("replacing clip", "index", index, "error", err)
	}
	s.clipStatus[index] = ClipReady

	preview, ok := s.previews[index]
	if !ok {
		srf := newRemoteSurface(PreviewTarget(index), s.emitCommand, s.hasViewers)
		preview = studio.NewPreview(srf)
		s.previews[index] = preview
		s.previewSrf[index] = srf
	}
	if err := preview.Attach(res); err != nil {
		s.logger.Warn("failed to attach preview", "index", index, "error", err)
	}

	s.logger.Info("clip ready", "index", index, "clip_id", res.ID())
	s.broadcastView()
	return nil
}

// RemoveClip drops and revokes the clip at index.
func (s *Session) RemoveClip(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}
	if p, ok := s.previews[index]; ok {
		p.Detach()
	}
	delete(s.clipStatus, index)
	err := s.registry.Remove(index)
	if s.player.Playing() {
		s.player.Tick()
	}
	s.broadcastView()
	return err
}

// ClipFailed turns a generation failure into a notice. Unauthorized
// failures ask the user to re-authorize instead.
func (s *Session) ClipFailed(index int, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if err := s.checkIndex(index); err != nil {
		return err
	}

	s.logger.Error("clip generation failed", "index", index, "error", cause)
	s.clipStatus[index] = ClipFailed

	if genai.IsUnauthorized(cause) {
		s.requireReauth()
		return nil
	}
	seg := index
	s.notices = append(s.notices, newNotice(NoticeClipFailed, MessageClipFailed, &seg))
	s.broadcastView()
	return nil
}

func (s *Session) requireReauth() {
	if s.closed {
		return
	}
	if !s.reauthRequired {
		s.reauthRequired = true
		s.notices = append(s.notices, newNotice(NoticeReauthRequired, MessageReauthRequired, nil))
	}
	s.broadcastView()
}

// ClearReauth drops the re-authorization prompt once a new key is set.
func (s *Session) ClearReauth() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reauthRequired || s.closed {
		return
	}
	s.reauthRequired = false
	kept := s.notices[:0]
	for _, n := range s.notices {
		if n.Kind != NoticeReauthRequired {
			kept = append(kept, n)
		}
	}
	s.notices = kept
	s.broadcastView()
}

func (s *Session) DismissNotice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			s.broadcastView()
			return nil
		}
	}
	return ErrNoticeNotFound
}

// UpdateSettings applies a settings edit. A clip already playing keeps the
// trims it started with.
func (s *Session) UpdateSettings(index int, patch studio.SettingsPatch) (studio.ClipSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return studio.ClipSettings{}, err
	}
	updated, err := s.settings.Update(index, patch)
	if err != nil {
		return studio.ClipSettings{}, err
	}
	s.broadcastView()
	return updated, nil
}

// RecordDuration stores the real duration of the clip at index.
func (s *Session) RecordDuration(index int, seconds float64) (studio.ClipSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return studio.ClipSettings{}, err
	}
	if err := s.settings.RecordDuration(index, finite(seconds)); err != nil {
		return studio.ClipSettings{}, err
	}
	cs, _ := s.settings.Get(index)
	s.broadcastView()
	return cs, nil
}

// HandleReport applies a browser report and runs a progress check.
func (s *Session) HandleReport(rep Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}

	if rep.Target == TargetSequence {
		if !s.surface.report(rep) {
			return nil
		}
		if index, ok := s.indexOf(rep.ClipID); ok {
			s.observeDuration(index, rep.Duration)
		}
		if rep.Error != "" {
			s.player.Fail(errors.New(rep.Error))
			return nil
		}
		s.player.Tick()
		return nil
	}

	index, ok := parsePreviewTarget(rep.Target)
	if !ok {
		return fmt.Errorf("unknown report target %q", rep.Target)
	}
	srf, ok := s.previewSrf[index]
	if !ok || !srf.report(rep) {
		return nil
	}
	s.observeDuration(index, rep.Duration)
	if rep.Error != "" {
		s.logger.Warn("preview playback failed", "index", index, "error", rep.Error)
	}
	s.previews[index].Observe()
	return nil
}

// observeDuration records a duration reported by a surface, broadcasting
// only when it changes the stored settings.
func (s *Session) observeDuration(index int, duration float64) {
	duration = finite(duration)
	if duration <= 0 {
		return
	}
	before, ok := s.settings.Get(index)
	if !ok || before.Duration == duration {
		return
	}
	s.settings.RecordDuration(index, duration)
	s.broadcastView()
}

func (s *Session) indexOf(clipID string) (int, bool) {
	for _, i := range s.registry.Indices() {
		if res, ok := s.registry.Get(i); ok && res.ID() == clipID {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) preview(index int) (*studio.Preview, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	p, ok := s.previews[index]
	if !ok || p.Resource() == nil {
		return nil, studio.ErrNoClip
	}
	return p, nil
}

func (s *Session) PreviewToggle(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.preview(index)
	if err != nil {
		return err
	}
	if err := p.Toggle(); err != nil {
		return err
	}
	s.broadcastView()
	return nil
}

func (s *Session) PreviewSeek(index int, position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.preview(index)
	if err != nil {
		return err
	}
	if err := p.Seek(finite(position)); err != nil {
		return err
	}
	s.broadcastView()
	return nil
}

// CopyText renders the script in the plain-text form used for the
// clipboard.
func (s *Session) CopyText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.script == nil {
		return "", ErrScriptPending
	}

	parts := make([]string, len(s.script.Segments))
	for i, seg := range s.script.Segments {
		parts[i] = fmt.Sprintf("[%s] Visual: %s\nAudio: %s", seg.Duration, seg.VisualCue, seg.AudioScript)
	}
	return fmt.Sprintf("TITLE: %s\n\nCAPTION: %s\n\nSCRIPT:\n%s",
		s.script.Title, s.script.Caption, strings.Join(parts, "\n\n")), nil
}

// Timeline returns the sequence as the player would play it now, with
// segment indices whose clips cannot be placed yet.
func (s *Session) Timeline() (title string, cuts []export.Cut, skipped []int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return "", nil, nil, err
	}
	cuts, skipped = export.BuildTimeline(s.registry, s.settings)
	for i := range cuts {
		cuts[i].Label = export.SanitizeName(s.script.Segments[cuts[i].Index].VisualCue, 60)
	}
	return s.script.Title, cuts, skipped, nil
}

// Subscribe registers a viewer. Events are dropped for a viewer that falls
// behind. The channel is closed by the returned cancel func or when the
// session closes. When the last viewer leaves, sequence playback stops.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	view := s.view()
	ch <- Event{Type: EventSession, Session: &view}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		sub, ok := s.subscribers[id]
		if !ok {
			return
		}
		delete(s.subscribers, id)
		close(sub)

		if len(s.subscribers) == 0 && s.player != nil {
			s.player.Stop()
		}
	}
}

func (s *Session) hasViewers() bool {
	return len(s.subscribers) > 0
}

func (s *Session) emitCommand(cmd Command) {
	s.broadcast(Event{Type: EventCommand, Command: &cmd})
}

func (s *Session) broadcastView() {
	if len(s.subscribers) == 0 {
		return
	}
	view := s.view()
	s.broadcast(Event{Type: EventSession, Session: &view})
}

func (s *Session) broadcast(ev Event) {
	for id, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("dropping event for slow viewer", "subscriber", id, "type", ev.Type)
		}
	}
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	v := View{
		ID:             s.id,
		NicheID:        s.niche.ID,
		NicheTitle:     s.niche.Title,
		Topic:          s.topic,
		Tone:           s.tone,
		Status:         s.status,
		LoadingStep:    s.loadingStep,
		Script:         s.script,
		Segments:       []SegmentView{},
		Notices:        append([]Notice{}, s.notices...),
		ReauthRequired: s.reauthRequired,
		CreatedAt:      s.createdAt,
	}
	if s.status == StatusGenerating {
		step := loadingSteps(s.niche.Title)[s.loadingStep]
		v.Loading = &step
	}
	if s.player != nil {
		v.Player = s.player.Snapshot()
	}
	if s.script == nil {
		return v
	}

	for i, seg := range s.script.Segments {
		sv := SegmentView{
			Index:       i,
			VisualCue:   seg.VisualCue,
			AudioScript: seg.AudioScript,
			Duration:    seg.Duration,
			ClipStatus:  s.clipStatus[i],
		}
		sv.Settings, _ = s.settings.Get(i)
		if res, ok := s.registry.Get(i); ok {
			sv.Clip = &ClipRef{ID: res.ID(), URL: res.URL()}
		}
		if p, ok := s.previews[i]; ok && p.Resource() != nil {
			sv.Preview = &PreviewView{
				Playing:  p.Playing(),
				Position: p.Position(),
				Duration: p.Duration(),
				Display:  p.Display(),
			}
		}
		v.Segments = append(v.Segments, sv)
	}
	return v
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		ID:         s.id,
		NicheID:    s.niche.ID,
		NicheTitle: s.niche.Title,
		Topic:      s.topic,
		Status:     s.status,
		Clips:      s.registry.Count(),
		CreatedAt:  s.createdAt,
	}
	if s.script != nil {
		sum.Title = s.script.Title
		sum.Segments = len(s.script.Segments)
	}
	if s.player != nil {
		sum.Playing = s.player.Playing()
	}
	return sum
}

// Close stops all scheduled work, revokes every clip and disconnects
// viewers. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if s.player != nil {
		s.player.Stop()
	}
	if s.frameCancel != nil {
		s.frameCancel()
		s.frameCancel = nil
	}
	s.stopLoading()
	if s.genCancel != nil {
		s.genCancel()
		s.genCancel = nil
	}
	for _, p := range s.previews {
		p.Detach()
	}

	s.closed = true
	s.status = StatusClosed
	err := s.registry.Close()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}

	s.logger.Info("session closed")
	return err
}
