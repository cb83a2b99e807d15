// Package blob provides named byte-blob media used to persist the sales
// history. Every medium replaces a key's value atomically: a reader sees
// either the previous value or the new one, never a partial write.
package blob

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("blob not found")

// Store is a key-value medium for whole blobs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Rename moves the value of from to to, replacing any value at to.
	Rename(ctx context.Context, from, to string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{m: map[string][]byte{}}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (s *Memory) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = clone(value)
	return nil
}

func (s *Memory) Rename(_ context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[from]
	if !ok {
		return ErrNotFound
	}
	s.m[to] = v
	delete(s.m, from)
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
