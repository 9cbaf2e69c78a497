package triplog

import (
	"context"
	"sync"
)

// MemoryRecorder keeps trip records in memory for console queries and tests.
type MemoryRecorder struct {
	mu   sync.Mutex
	recs []Record
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (m *MemoryRecorder) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecorder) Query(_ context.Context, q Query) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.recs {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRecorder) Close() error { return nil }
