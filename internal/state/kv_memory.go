package state

import (
	"context"
	"sync"
)

type memoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryKV returns a process-local KV, used in tests and dev mode.
func NewMemoryKV() KV {
	return &memoryKV{m: map[string][]byte{}}
}

func (s *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNoKey
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *memoryKV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}

func (s *memoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}
