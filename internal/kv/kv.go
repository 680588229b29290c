// Package kv provides the per-device key/value slots that back local
// records and operator preferences.
package kv

import (
	"context"
	"sync"
)

// Slots is a flat string-to-string store scoped to one device.
type Slots interface {
	// Get returns the slot value and whether the slot exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites a slot.
	Set(ctx context.Context, key, value string) error
}

// Memory is an in-process Slots implementation.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory returns an empty in-memory slot store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}
