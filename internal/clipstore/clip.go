package clipstore

import (
	"io"
	"os"
	"sync"
)

// Clip is a revocable handle to one stored video. It satisfies
// studio.Resource.
type Clip struct {
	id          string
	path        string
	contentType string
	size        int64
	store       *Store

	once      sync.Once
	revokeErr error
}

func (c *Clip) ID() string          { return c.id }
func (c *Clip) URL() string         { return URLPrefix + c.id }
func (c *Clip) ContentType() string { return c.contentType }
func (c *Clip) Size() int64         { return c.size }

// Revoke deletes the clip's bytes. Only the first call has any effect.
func (c *Clip) Revoke() error {
	c.once.Do(func() {
		c.revokeErr = c.store.release(c)
	})
	return c.revokeErr
}

// Open returns a reader over the clip's bytes.
func (c *Clip) Open() (io.ReadSeekCloser, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil, ErrRevoked
	}
	return f, err
}
