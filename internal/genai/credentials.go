package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrCredentialRequired means the user has to supply an API key before the
// request can be attempted again.
var ErrCredentialRequired = errors.New("generative API key required")

const configKeyAPIKey = "genai_api_key"

// CredentialProvider is the capability components use to check for an API
// key and to ask the user for a new one.
type CredentialProvider interface {
	HasCredential() bool
	PromptForCredential(ctx context.Context) error
}

// ConfigStore persists small key/value settings.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// StoredCredentials keeps the API key in the config store, falling back to
// the key from the environment. A prompt stays pending until a new key is
// set, and no credential is reported while it is pending.
type StoredCredentials struct {
	store  ConfigStore
	envKey string
	logger *slog.Logger

	mu      sync.RWMutex
	key     string
	pending bool
}

func NewStoredCredentials(ctx context.Context, store ConfigStore, envKey string, logger *slog.Logger) *StoredCredentials {
	c := &StoredCredentials{store: store, envKey: envKey, logger: logger}
	if stored, err := store.GetConfig(ctx, configKeyAPIKey); err == nil && stored != "" {
		c.key = stored
	}
	return c
}

// APIKey returns the key requests should be signed with.
func (c *StoredCredentials) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key != "" {
		return c.key
	}
	return c.envKey
}

func (c *StoredCredentials) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.pending && (c.key != "" || c.envKey != "")
}

// PromptForCredential marks a prompt as pending so the UI asks the user
// for a key. It always returns ErrCredentialRequired: nothing can be
// retried until SetAPIKey is called.
func (c *StoredCredentials) PromptForCredential(ctx context.Context) error {
	c.mu.Lock()
	already := c.pending
	c.pending = true
	c.mu.Unlock()

	if !already {
		c.logger.Info("api key prompt requested")
	}
	return ErrCredentialRequired
}

func (c *StoredCredentials) PromptPending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// SetAPIKey stores a user-supplied key and clears any pending prompt.
func (c *StoredCredentials) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}
	if err := c.store.SetConfig(ctx, configKeyAPIKey, key); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}

	c.mu.Lock()
	c.key = key
	c.pending = false
	c.mu.Unlock()

	c.logger.Info("api key updated", "key", sanitizeKey(key))
	return nil
}

func sanitizeKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
