package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultScriptModel  = "gemini-2.5-flash"
	DefaultVideoModel   = "veo-3.1-fast-generate-preview"
	DefaultPollInterval = 10 * time.Second

	maxErrorBody = 4096
)

// KeySource supplies the API key at request time.
type KeySource interface {
	APIKey() string
}

type Config struct {
	BaseURL      string
	ScriptModel  string
	VideoModel   string
	PollInterval time.Duration
	Keys         KeySource
	Logger       *slog.Logger
}

// Client implements ScriptGenerator and ClipGenerator against the Gemini
// REST API.
type Client struct {
	baseURL      string
	scriptModel  string
	videoModel   string
	pollInterval time.Duration
	keys         KeySource
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		scriptModel:  cfg.ScriptModel,
		videoModel:   cfg.VideoModel,
		pollInterval: cfg.PollInterval,
		keys:         cfg.Keys,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.scriptModel == "" {
		c.scriptModel = DefaultScriptModel
	}
	if c.videoModel == "" {
		c.videoModel = DefaultVideoModel
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	return c
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

func (e *apiError) reasons() []string {
	reasons := make([]string, 0, len(e.Error.Details))
	for _, d := range e.Error.Details {
		if d.Reason != "" {
			reasons = append(reasons, d.Reason)
		}
	}
	return reasons
}

func (c *Client) apiKey(op string) (string, error) {
	if c.keys == nil || c.keys.APIKey() == "" {
		return "", &GenerationError{Kind: KindUnauthorized, Op: op, Err: ErrCredentialRequired}
	}
	return c.keys.APIKey(), nil
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, op, method, url string, in, out any) error {
	key, err := c.apiKey(op)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &GenerationError{Kind: KindFatal, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &GenerationError{Kind: KindFatal, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GenerationError{Kind: KindTransient, Op: op, Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GenerationError{Kind: KindTransient, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func responseError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	kind := classifyHTTP(resp.StatusCode)

	var parsed apiError
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		if isAuthStatus(parsed.Error.Status, parsed.reasons()) {
			kind = KindUnauthorized
		}
	}

	return &GenerationError{
		Kind:       kind,
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
