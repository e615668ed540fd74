package service_test

import (
	"context"
	"sync"

	"github.com/aaravmahajanofficial/storefront/internal/storage"
)

// recordingStore counts writes and can be told to fail them.
type recordingStore struct {
	storage.Store

	mu      sync.Mutex
	sets    map[string]int
	deletes [][]string
	failSet error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: storage.NewMemoryStore(), sets: make(map[string]int)}
}

func (s *recordingStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	s.sets[key]++
	failSet := s.failSet
	s.mu.Unlock()

	if failSet != nil {
		return failSet
	}

	return s.Store.Set(ctx, key, value)
}

func (s *recordingStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, keys)
	s.mu.Unlock()

	return s.Store.Delete(ctx, keys...)
}

func (s *recordingStore) setCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sets[key]
}

func (s *recordingStore) deleteCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]string(nil), s.deletes...)
}

func (s *recordingStore) setFailure(err error) {
	s.mu.Lock()
	s.failSet = err
	s.mu.Unlock()
}
