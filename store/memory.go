package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

const (
	DefaultMaxKeySize   = 256
	DefaultMaxValueSize = 1 << 20 // 1MB
	DefaultMaxEntries   = 10000
)

// MemoryConfig limits the in-memory store. Zero values disable a limit.
type MemoryConfig struct {
	MaxKeySize   int
	MaxValueSize int
	MaxEntries   int
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxKeySize:   DefaultMaxKeySize,
		MaxValueSize: DefaultMaxValueSize,
		MaxEntries:   DefaultMaxEntries,
	}
}

// Memory is a process-local KV. Values are copied in and out.
type Memory struct {
	cfg  MemoryConfig
	data map[string][]byte
	mu   sync.RWMutex
}

func NewMemory(cfg MemoryConfig) *Memory {
	return &Memory{cfg: cfg, data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	val, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if m.cfg.MaxKeySize > 0 && len(key) > m.cfg.MaxKeySize {
		return ErrKeyTooLarge
	}
	if m.cfg.MaxValueSize > 0 && len(value) > m.cfg.MaxValueSize {
		return ErrValueTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists && m.cfg.MaxEntries > 0 && len(m.data) >= m.cfg.MaxEntries {
		return ErrTooManyEntries
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	return nil
}
