package registry

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry for tests and single-node
// operation, with no external dependency to stand up.
type MemoryRegistry struct {
	mu      sync.RWMutex
	devices map[string]Device
}

// NewMemory creates an empty MemoryRegistry.
func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{devices: make(map[string]Device)}
}

func (m *MemoryRegistry) Register(_ context.Context, d Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.LastSeen.IsZero() {
		d.LastSeen = time.Now()
	}
	m.devices[d.ID] = d
	return nil
}

func (m *MemoryRegistry) Lookup(_ context.Context, deviceID string) (Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return Device{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryRegistry) Touch(_ context.Context, deviceID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return ErrNotFound
	}
	d.LastSeen = at
	m.devices[deviceID] = d
	return nil
}

func (m *MemoryRegistry) Forget(_ context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, deviceID)
	return nil
}
