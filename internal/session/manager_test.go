package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/reelsmith/reelsmith-agent/internal/genai"
)

func TestManager_CreateRequiresTopic(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})

	if _, err := m.Create(testNiche, "   ", ""); !errors.Is(err, ErrTopicRequired) {
		t.Errorf("Create() error = %v, want ErrTopicRequired", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestManager_CreateDefaultsTone(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	s, err := m.Create(testNiche, "topic", "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if s.View().Tone != genai.DefaultTone {
		t.Errorf("tone = %q, want %q", s.View().Tone, genai.DefaultTone)
	}
}

func TestManager_GetListClose(t *testing.T) {
	var mu sync.Mutex
	var closed []string
	m := newTestManager(t, ManagerConfig{
		OnClose: func(id string) {
			mu.Lock()
			closed = append(closed, id)
			mu.Unlock()
		},
	})

	a := readySession(t, m)
	b := readySession(t, m)

	got, err := m.Get(a.ID())
	if err != nil || got != a {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	list := m.List()
	if len(list) != 2 || list[0].ID != a.ID() || list[1].ID != b.ID() {
		t.Fatalf("List() = %+v", list)
	}
	if list[0].Title != "Tiny Habits" || list[0].Segments != 3 {
		t.Errorf("summary = %+v", list[0])
	}

	if err := m.Close(a.ID()); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := m.Close(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Close() error = %v, want ErrNotFound", err)
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(closed) != 1 || closed[0] != a.ID() {
		t.Errorf("OnClose calls = %v", closed)
	}
}

func TestManager_StopAll(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	a := readySession(t, m)
	b := readySession(t, m)

	for _, s := range []*Session{a, b} {
		_, cancel := s.Subscribe()
		defer cancel()
		s.SetClip(0, &fakeClip{id: s.ID() + "-clip"})
	}
	a.Play()

	if m.PlayingCount() != 1 {
		t.Fatalf("PlayingCount() = %d, want 1", m.PlayingCount())
	}
	if n := m.StopAll(); n != 1 {
		t.Errorf("StopAll() = %d, want 1", n)
	}
	if m.PlayingCount() != 0 {
		t.Errorf("PlayingCount() after StopAll = %d", m.PlayingCount())
	}
}

func TestManager_CloseAllRevokesEverything(t *testing.T) {
	m := newTestManager(t, ManagerConfig{})
	a := readySession(t, m)
	b := readySession(t, m)

	clips := []*fakeClip{{id: "1"}, {id: "2"}, {id: "3"}}
	a.SetClip(0, clips[0])
	a.SetClip(2, clips[1])
	b.SetClip(1, clips[2])

	if err := m.CloseAll(); err != nil {
		t.Fatalf("CloseAll() error: %v", err)
	}
	for _, c := range clips {
		if c.revoked.Load() != 1 {
			t.Errorf("clip %s revoked %d times, want 1", c.id, c.revoked.Load())
		}
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
	if _, err := m.Create(testNiche, "topic", ""); err == nil {
		t.Error("Create() after CloseAll should fail")
	}
}
