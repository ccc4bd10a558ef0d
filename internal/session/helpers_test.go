package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNiche = catalog.Niche{ID: "tech-tips", Title: "Productivity Hacks", Category: "tech", Icon: catalog.IconLaptop}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeClip struct {
	id        string
	revokeErr error
	revoked   atomic.Int32
}

func (c *fakeClip) ID() string  { return c.id }
func (c *fakeClip) URL() string { return "/clips/" + c.id }
func (c *fakeClip) Revoke() error {
	c.revoked.Add(1)
	return c.revokeErr
}

// loadOf returns the load number the browser would echo for target.
func (s *Session) loadOf(target string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target == TargetSequence {
		return s.surface.loads
	}
	if index, ok := parsePreviewTarget(target); ok {
		if srf, ok := s.previewSrf[index]; ok {
			return srf.loads
		}
	}
	return 0
}

type scriptFunc func(ctx context.Context, nicheTitle, topic, tone string) (*genai.Script, error)

func (f scriptFunc) GenerateScript(ctx context.Context, nicheTitle, topic, tone string) (*genai.Script, error) {
	return f(ctx, nicheTitle, topic, tone)
}

func staticScript(script *genai.Script) scriptFunc {
	return func(context.Context, string, string, string) (*genai.Script, error) {
		return script, nil
	}
}

type fakeCreds struct {
	has     atomic.Bool
	prompts atomic.Int32
}

func (c *fakeCreds) HasCredential() bool { return c.has.Load() }
func (c *fakeCreds) PromptForCredential(ctx context.Context) error {
	c.prompts.Add(1)
	return genai.ErrCredentialRequired
}

type fakeHistory struct {
	mu      sync.Mutex
	records []*store.ScriptRecord
}

func (h *fakeHistory) SaveScript(ctx context.Context, s *store.ScriptRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, s)
	return nil
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func threeSegments() *genai.Script {
	return &genai.Script{
		Title:   "Tiny Habits",
		Hook:    "Stop scrolling.",
		Caption: "Try this today",
		Segments: []genai.Segment{
			{VisualCue: "sunrise timelapse", AudioScript: "Every morning...", Duration: "3s"},
			{VisualCue: "coffee pour", AudioScript: "Start small.", Duration: "4s"},
			{VisualCue: "checklist closeup", AudioScript: "Tick one box.", Duration: "5s"},
		},
		Hashtags: []string{"#habits"},
	}
}

func newTestManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	if cfg.Scripts == nil {
		cfg.Scripts = staticScript(threeSegments())
	}
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	if cfg.FrameInterval == 0 {
		cfg.FrameInterval = time.Hour
	}
	if cfg.LoadingInterval == 0 {
		cfg.LoadingInterval = time.Hour
	}
	m := NewManager(cfg)
	t.Cleanup(func() { m.CloseAll() })
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readySession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Create(testNiche, "morning routines", "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	waitFor(t, "script", func() bool { return s.View().Status == StatusReady })
	return s
}

// drainCommands returns the commands already queued on ch.
func drainCommands(ch <-chan Event) []Command {
	var cmds []Command
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return cmds
			}
			if ev.Type == EventCommand {
				cmds = append(cmds, *ev.Command)
			}
		default:
			return cmds
		}
	}
}

func commandsFor(cmds []Command, target string) []Command {
	var out []Command
	for _, c := range cmds {
		if c.Target == target {
			out = append(out, c)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
