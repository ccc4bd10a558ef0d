// Package clipstore keeps generated clip bytes on disk behind revocable
// handles. A clip is reachable at /clips/{id} until it is revoked.
package clipstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("clip not found")
	ErrRevoked  = errors.New("clip revoked")
)

const URLPrefix = "/clips/"

type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	clips   map[string]*Clip
	revoked map[string]struct{}
}

func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create clip directory: %w", err)
	}
	return &Store{
		dir:     dir,
		logger:  logger,
		clips:   make(map[string]*Clip),
		revoked: make(map[string]struct{}),
	}, nil
}

// Put copies r into a new clip file. The returned clip owns the file until
// Revoke is called.
func (s *Store) Put(ctx context.Context, r io.Reader, contentType string) (*Clip, error) {
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+extensionFor(contentType))

	tmp, err := os.CreateTemp(s.dir, ".incoming-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	size, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write clip: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to store clip: %w", err)
	}

	clip := &Clip{
		id:          id,
		path:        path,
		contentType: contentType,
		size:        size,
		store:       s,
	}

	s.mu.Lock()
	s.clips[id] = clip
	s.mu.Unlock()

	s.logger.Info("clip stored", "clip_id", id, "size", humanize.Bytes(uint64(size)))
	return clip, nil
}

// Lookup returns a live clip by ID.
func (s *Store) Lookup(id string) (*Clip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if clip, ok := s.clips[id]; ok {
		return clip, nil
	}
	if _, ok := s.revoked[id]; ok {
		return nil, ErrRevoked
	}
	return nil, ErrNotFound
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clips)
}

// Size returns the total bytes held by live clips.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, c := range s.clips {
		total += c.size
	}
	return total
}

// Purge deletes every file in the clip directory that no live clip owns.
// Run at startup it clears what a crashed process left behind.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read clip directory: %w", err)
	}

	s.mu.RLock()
	owned := make(map[string]struct{}, len(s.clips))
	for _, c := range s.clips {
		owned[filepath.Base(c.path)] = struct{}{}
	}
	s.mu.RUnlock()

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := owned[e.Name()]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to purge clip file", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("purged stale clips", "count", removed)
	}
	return removed, nil
}

func (s *Store) release(c *Clip) error {
	s.mu.Lock()
	delete(s.clips, c.id)
	s.revoked[c.id] = struct{}{}
	s.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove clip %s: %w", c.id, err)
	}
	s.logger.Debug("clip revoked", "clip_id", c.id)
	return nil
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	default:
		return ".bin"
	}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
