package kvstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vmelnikov/filedrop/internal/common"
)

// MemoryStore is a map-backed Store with the same capacity semantics as the
// sqlite implementation. It backs ephemeral runs and test doubles.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string][]byte
	used     int64
	capacity int64
}

// NewMemoryStore creates an empty in-memory store. capacity is in bytes;
// 0 disables the limit.
func NewMemoryStore(capacity int64) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string][]byte),
		capacity: capacity,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing int64
	if old, ok := s.entries[key]; ok {
		existing = entrySize(key, old)
	}
	if s.capacity > 0 && s.used-existing+entrySize(key, value) > s.capacity {
		return common.ErrQuotaExceeded
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries[key] = stored
	s.used += entrySize(key, value) - existing
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.used -= entrySize(key, old)
		delete(s.entries, key)
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string][]byte)
	s.used = 0
	return nil
}

// Used reports current capacity consumption in bytes.
func (s *MemoryStore) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
