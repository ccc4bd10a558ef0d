package ui

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 2 * time.Second

// Studio is what the tray shows and controls.
type Studio interface {
	Count() int
	PlayingCount() int
	StopAll() int
}

// ClipQueue is the clip generation runner.
type ClipQueue interface {
	ActiveCount() int
	IsPaused() bool
	Pause()
	Resume()
}

type Tray struct {
	studio Studio
	queue  ClipQueue
	logger *slog.Logger

	statusItem   *systray.MenuItem
	sessionsItem *systray.MenuItem
	pauseItem    *systray.MenuItem
	stopItem     *systray.MenuItem

	mu   sync.Mutex
	done chan struct{}

	onQuit func()
}

type TrayConfig struct {
	Studio Studio
	Queue  ClipQueue
	Logger *slog.Logger
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		studio: cfg.Studio,
		queue:  cfg.Queue,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
		done:   make(chan struct{}),
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Reelsmith")
	systray.SetTooltip("Reelsmith Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.sessionsItem = systray.AddMenuItem(sessionsLine(0, 0), "Open editing sessions")
	t.sessionsItem.Disable()

	systray.AddSeparator()

	t.stopItem = systray.AddMenuItem("Stop All Playback", "Stop every playing sequence")
	t.pauseItem = systray.AddMenuItem("Pause Clip Generation", "Hold queued clip generation")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Reelsmith Agent")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-t.stopItem.ClickedCh:
				n := t.studio.StopAll()
				t.logger.Info("playback stopped from tray", "sessions", n)
				t.refresh()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	close(t.done)
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	open, playing := t.studio.Count(), t.studio.PlayingCount()
	generating, paused := 0, false
	if t.queue != nil {
		generating, paused = t.queue.ActiveCount(), t.queue.IsPaused()
	}

	t.statusItem.SetTitle("Status: " + statusLine(playing, generating, paused))
	t.sessionsItem.SetTitle(sessionsLine(open, playing))
	if playing > 0 {
		t.stopItem.Enable()
	} else {
		t.stopItem.Disable()
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.queue == nil {
		return
	}

	if t.queue.IsPaused() {
		t.queue.Resume()
		t.pauseItem.SetTitle("Pause Clip Generation")
	} else {
		t.queue.Pause()
		t.pauseItem.SetTitle("Resume Clip Generation")
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}

func statusLine(playing, generating int, paused bool) string {
	switch {
	case playing > 0:
		return "Playing"
	case generating > 0:
		return fmt.Sprintf("Generating %d clip(s)", generating)
	case paused:
		return "Paused"
	default:
		return "Idle"
	}
}

func sessionsLine(open, playing int) string {
	if playing == 0 {
		return fmt.Sprintf("Sessions: %d", open)
	}
	return fmt.Sprintf("Sessions: %d (%d playing)", open, playing)
}
