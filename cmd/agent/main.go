package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/reelsmith/reelsmith-agent/internal/api"
	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/clipstore"
	"github.com/reelsmith/reelsmith-agent/internal/config"
	"github.com/reelsmith/reelsmith-agent/internal/db"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/jobs"
	"github.com/reelsmith/reelsmith-agent/internal/logging"
	"github.com/reelsmith/reelsmith-agent/internal/playback"
	"github.com/reelsmith/reelsmith-agent/internal/session"
	"github.com/reelsmith/reelsmith-agent/internal/store"
	"github.com/reelsmith/reelsmith-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting reelsmith agent", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	deviceID, err := ensureRandomConfig(context.Background(), repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureRandomConfig(context.Background(), repo, "auth_token", 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  REELSMITH AGENT v%-23s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	niches, err := catalog.Load(cfg.CatalogFile(), logging.WithComponent(logger, "catalog"))
	if err != nil {
		return fmt.Errorf("failed to load niche catalog: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := genai.NewStoredCredentials(ctx, repo, cfg.GenAIAPIKey(), logging.WithComponent(logger, "credentials"))
	if !creds.HasCredential() {
		logger.Warn("no generative API key configured; set one with PUT /credentials")
	}

	client := genai.NewClient(genai.Config{
		BaseURL:      cfg.GenAIBaseURL(),
		ScriptModel:  cfg.ScriptModel(),
		VideoModel:   cfg.VideoModel(),
		PollInterval: cfg.VideoPollInterval(),
		Keys:         creds,
		Logger:       logging.WithComponent(logger, "genai"),
	})

	clips, err := clipstore.New(cfg.ClipsDir(), logging.WithComponent(logger, "clipstore"))
	if err != nil {
		return fmt.Errorf("failed to open clip store: %w", err)
	}
	if n, err := clips.Purge(); err != nil {
		logger.Warn("failed to purge stale clips", "error", err)
	} else if n > 0 {
		logger.Info("purged stale clips", "count", n)
	}

	// The runner needs the manager and the manager's close hook needs the
	// runner, so the hook resolves it late.
	var runner *jobs.Runner

	sessions := session.NewManager(session.ManagerConfig{
		Scripts:       client,
		Credentials:   creds,
		History:       repo,
		FrameInterval: cfg.FrameInterval(),
		Logger:        logging.WithComponent(logger, "session"),
		OnClose: func(id string) {
			if runner != nil {
				runner.CancelSession(context.Background(), id)
			}
		},
	})

	runner = jobs.NewRunner(jobs.Config{
		Repo:      repo,
		Generator: client,
		Clips:     clips,
		Sessions: func(id string) (jobs.ClipSink, error) {
			s, err := sessions.Get(id)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Credentials:   creds,
		Logger:        logging.WithComponent(logger, "jobs"),
		MaxConcurrent: cfg.MaxClipJobs(),
	})
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		Sessions:       sessions,
		Catalog:        niches,
		Credentials:    creds,
		Queue:          runner,
		Clips:          clips,
		PlaybackServer: playback.NewServer(logger),
		Repository:     repo,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// The signal handler and the tray can both ask to quit.
	quitCh, quit := newQuitSignal()

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit()
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Studio: sessions,
			Queue:  runner,
			Logger: logging.WithComponent(logger, "tray"),
			OnQuit: quit,
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	if err := sessions.CloseAll(); err != nil {
		logger.Warn("failed to release some clips", "error", err)
	}
	runner.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newQuitSignal returns a channel closed by the first call to quit. Later
// calls do nothing.
func newQuitSignal() (<-chan struct{}, func()) {
	ch := make(chan struct{})
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

// ensureRandomConfig returns the stored value for key, generating and storing
// n random hex-encoded bytes on first run.
func ensureRandomConfig(ctx context.Context, repo store.Repository, key string, n int) (string, error) {
	if existing, err := repo.GetConfig(ctx, key); err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
