package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/starford/notenest/internal/checksum"
)

// CodableStore persists a single JSON-encoded value of type T in one file.
// Every Insert replaces the whole document.
//
// Operations are serialised by a mutex. The checksum of the last written
// document is remembered so a file watcher can tell own writes apart.
type CodableStore[T any] struct {
	mu      sync.Mutex
	path    string
	lastSum atomic.Pointer[string]
}

// NewCodableStore creates a store over the file at path. The file does not
// need to exist until the first Insert.
func NewCodableStore[T any](path string) *CodableStore[T] {
	return &CodableStore[T]{path: path}
}

// Path returns the backing file path.
func (s *CodableStore[T]) Path() string {
	return s.path
}

// Retrieve reads and decodes the stored value.
func (s *CodableStore[T]) Retrieve(_ context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v T
	data, err := os.ReadFile(s.path)
	if err != nil {
		return v, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("storage: decode %s: %w", s.path, err)
	}
	return v, nil
}

// Insert encodes v and atomically overwrites the file.
func (s *CodableStore[T]) Insert(_ context.Context, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	sum := checksum.Sum(data)
	s.lastSum.Store(&sum)
	return nil
}

// Delete removes the file. It fails when the file does not exist.
func (s *CodableStore[T]) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := removeFile(s.path); err != nil {
		return err
	}
	s.lastSum.Store(nil)
	return nil
}

// OwnsContent reports whether sum is the checksum of this store's most
// recent Insert.
func (s *CodableStore[T]) OwnsContent(sum string) bool {
	last := s.lastSum.Load()
	return last != nil && *last == sum
}
