// Package studio implements clip-sequence playback: a registry of revocable
// clip resources, per-clip edit settings, a sequence player that drives one
// playback surface through the available clips, and a single-clip preview.
//
// Nothing in this package is safe for concurrent use. Callers serialize all
// access through a single owner (see internal/session).
package studio

import (
	"errors"
	"fmt"
	"sort"
)

var ErrIndexOutOfRange = errors.New("segment index out of range")

// Resource is a playable clip handle whose backing bytes stay reachable
// until Revoke is called.
type Resource interface {
	ID() string
	URL() string
	Revoke() error
}

// Registry maps segment indices to the clip resource generated for them.
// It owns every resource it holds: replacing or removing an entry revokes
// the superseded resource, and Close revokes whatever remains.
type Registry struct {
	size      int
	resources map[int]Resource
	closed    bool
}

func NewRegistry(segmentCount int) *Registry {
	return &Registry{
		size:      segmentCount,
		resources: make(map[int]Resource),
	}
}

// Set stores res for index, revoking the resource it replaces first.
// The revoke error is returned but the new resource is stored regardless.
func (r *Registry) Set(index int, res Resource) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}
	if r.closed {
		return fmt.Errorf("registry closed")
	}

	var revokeErr error
	if prev, ok := r.resources[index]; ok && prev != res {
		if err := prev.Revoke(); err != nil {
			revokeErr = fmt.Errorf("revoke previous clip %s: %w", prev.ID(), err)
		}
	}
	r.resources[index] = res
	return revokeErr
}

func (r *Registry) Get(index int) (Resource, bool) {
	res, ok := r.resources[index]
	return res, ok
}

// Has reports whether index currently has a playable resource.
func (r *Registry) Has(index int) bool {
	_, ok := r.resources[index]
	return ok
}

// Remove revokes and forgets the resource at index, if any.
func (r *Registry) Remove(index int) error {
	res, ok := r.resources[index]
	if !ok {
		return nil
	}
	delete(r.resources, index)
	if err := res.Revoke(); err != nil {
		return fmt.Errorf("revoke clip %s: %w", res.ID(), err)
	}
	return nil
}

// Close revokes every remaining resource. Calling it again is a no-op.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, index := range r.Indices() {
		res := r.resources[index]
		delete(r.resources, index)
		if err := res.Revoke(); err != nil {
			errs = append(errs, fmt.Errorf("revoke clip %s: %w", res.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Len is the number of segments the registry is keyed over.
func (r *Registry) Len() int {
	return r.size
}

// Count is the number of segments that currently have a resource.
func (r *Registry) Count() int {
	return len(r.resources)
}

// Indices returns the populated indices in ascending order.
func (r *Registry) Indices() []int {
	indices := make([]int, 0, len(r.resources))
	for i := range r.resources {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// NextAvailable returns the smallest populated index >= from, or -1.
func (r *Registry) NextAvailable(from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < r.size; i++ {
		if _, ok := r.resources[i]; ok {
			return i
		}
	}
	return -1
}

func (r *Registry) checkIndex(index int) error {
	if index < 0 || index >= r.size {
		return fmt.Errorf("%w: %d (segments: %d)", ErrIndexOutOfRange, index, r.size)
	}
	return nil
}
