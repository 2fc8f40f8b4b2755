package deliverylog

import (
	"context"
	"sync"
)

// MemoryLog is an in-process Log for tests.
type MemoryLog struct {
	mu       sync.Mutex
	Attempts []Attempt
	FailNext bool
}

func NewMemory() *MemoryLog { return &MemoryLog{} }

func (m *MemoryLog) Record(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return ErrWriteFailed
	}
	m.Attempts = append(m.Attempts, a)
	return nil
}
