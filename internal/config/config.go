// Package config provides configuration management for the Reelsmith agent.
// Configuration is loaded from environment variables with sensible defaults.
// A .env file in the working directory is read first when present; variables
// already set in the environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort              = 8790
	DefaultLogLevel          = "info"
	DefaultDataDir           = ".reelsmith"
	DefaultScriptModel       = "gemini-2.5-flash"
	DefaultVideoModel        = "veo-3.1-fast-generate-preview"
	DefaultVideoPollInterval = 10 * time.Second
	DefaultFrameInterval     = 16 * time.Millisecond
	DefaultMaxClipJobs       = 1

	// Environment variable names
	EnvPort              = "REELSMITH_PORT"
	EnvLogLevel          = "REELSMITH_LOG_LEVEL"
	EnvDataDir           = "REELSMITH_DATA_DIR"
	EnvHeadless          = "REELSMITH_HEADLESS"
	EnvGenAIBaseURL      = "REELSMITH_GENAI_BASE_URL"
	EnvScriptModel       = "REELSMITH_SCRIPT_MODEL"
	EnvVideoModel        = "REELSMITH_VIDEO_MODEL"
	EnvVideoPollInterval = "REELSMITH_VIDEO_POLL_INTERVAL"
	EnvCatalogFile       = "REELSMITH_CATALOG_FILE"
	EnvFrameInterval     = "REELSMITH_FRAME_INTERVAL"
	EnvMaxClipJobs       = "REELSMITH_MAX_CLIP_JOBS"

	// API key variables, checked in order.
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvAPIKey       = "API_KEY"

	// Database filename
	DBFilename = "reelsmith.db"

	DefaultEnvFile = ".env"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	ClipsDir() string
	Headless() bool
	GenAIAPIKey() string
	GenAIBaseURL() string
	ScriptModel() string
	VideoModel() string
	VideoPollInterval() time.Duration
	CatalogFile() string
	FrameInterval() time.Duration
	MaxClipJobs() int
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	apiKey            string
	genaiBaseURL      string
	scriptModel       string
	videoModel        string
	videoPollInterval time.Duration

	catalogFile   string
	frameInterval time.Duration
	maxClipJobs   int
}

// New loads ./.env if it exists and then reads the environment.
func New() (*EnvConfig, error) {
	return Load(DefaultEnvFile)
}

// Load reads envFile (skipped when empty or missing) and then the
// environment.
func Load(envFile string) (*EnvConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &EnvConfig{
		port:              DefaultPort,
		logLevel:          DefaultLogLevel,
		dataDir:           defaultDataDir(),
		scriptModel:       DefaultScriptModel,
		videoModel:        DefaultVideoModel,
		videoPollInterval: DefaultVideoPollInterval,
		frameInterval:     DefaultFrameInterval,
		maxClipJobs:       DefaultMaxClipJobs,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.apiKey = strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
	if cfg.apiKey == "" {
		cfg.apiKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}

	cfg.genaiBaseURL = os.Getenv(EnvGenAIBaseURL)
	if m := os.Getenv(EnvScriptModel); m != "" {
		cfg.scriptModel = m
	}
	if m := os.Getenv(EnvVideoModel); m != "" {
		cfg.videoModel = m
	}
	cfg.catalogFile = os.Getenv(EnvCatalogFile)

	var err error
	if cfg.videoPollInterval, err = positiveDuration(EnvVideoPollInterval, cfg.videoPollInterval); err != nil {
		return nil, err
	}
	if cfg.frameInterval, err = positiveDuration(EnvFrameInterval, cfg.frameInterval); err != nil {
		return nil, err
	}

	if v := os.Getenv(EnvMaxClipJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvMaxClipJobs, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid %s: must be at least 1", EnvMaxClipJobs)
		}
		cfg.maxClipJobs = n
	}

	return cfg, nil
}

func positiveDuration(env string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", env)
	}
	return d, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the cache directory path
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// ClipsDir holds the bytes of generated clips for open sessions.
func (c *EnvConfig) ClipsDir() string {
	return filepath.Join(c.CacheDir(), "clips")
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// GenAIAPIKey is the key from the environment. A key stored through the
// API takes precedence over it.
func (c *EnvConfig) GenAIAPIKey() string {
	return c.apiKey
}

func (c *EnvConfig) GenAIBaseURL() string {
	return c.genaiBaseURL
}

func (c *EnvConfig) ScriptModel() string {
	return c.scriptModel
}

func (c *EnvConfig) VideoModel() string {
	return c.videoModel
}

func (c *EnvConfig) VideoPollInterval() time.Duration {
	return c.videoPollInterval
}

// CatalogFile is an optional YAML file replacing the built-in niche catalog.
func (c *EnvConfig) CatalogFile() string {
	return c.catalogFile
}

// FrameInterval is the cadence of progress checks while a sequence plays.
func (c *EnvConfig) FrameInterval() time.Duration {
	return c.frameInterval
}

func (c *EnvConfig) MaxClipJobs() int {
	return c.maxClipJobs
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
