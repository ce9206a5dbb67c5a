package chunkcache

import (
	"context"
	"sync"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
)

// Memory is the in-process summary cache. Two workers racing on the same
// uncached key is fine: last write wins and both results describe the same
// input.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory constructs a cache backed by process memory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Get implements booksum.SummaryCache.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	summary, ok := m.entries[key]
	m.mu.RUnlock()
	return summary, ok, nil
}

// Put implements booksum.SummaryCache.
func (m *Memory) Put(_ context.Context, key, summary string) error {
	m.mu.Lock()
	m.entries[key] = summary
	m.mu.Unlock()
	return nil
}

// Len reports the number of cached summaries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ booksum.SummaryCache = (*Memory)(nil)
