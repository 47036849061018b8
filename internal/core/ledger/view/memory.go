package view

import (
	"bytes"
	"sort"
	"sync"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
)

// Memory is a committed view held entirely in memory.
type Memory struct {
	mu   sync.RWMutex
	data map[[32]byte][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[[32]byte][]byte)}
}

func (m *Memory) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[k.Key], nil
}

func (m *Memory) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[k.Key]
	return ok, nil
}

func (m *Memory) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[k.Key]; ok {
		return ErrEntryExists
	}
	m.data[k.Key] = data
	return nil
}

func (m *Memory) Update(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[k.Key]; !ok {
		return ErrEntryNotFound
	}
	m.data[k.Key] = data
	return nil
}

func (m *Memory) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[k.Key]; !ok {
		return ErrEntryNotFound
	}
	delete(m.data, k.Key)
	return nil
}

func (m *Memory) ForEach(prefix keylet.Prefix, fn func(key [32]byte, data []byte) bool) error {
	m.mu.RLock()
	keys := make([][32]byte, 0)
	for key := range m.data {
		if bytes.HasPrefix(key[:], prefix) {
			keys = append(keys, key)
		}
	}
	snapshot := make(map[[32]byte][]byte, len(keys))
	for _, key := range keys {
		snapshot[key] = m.data[key]
	}
	m.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	for _, key := range keys {
		if !fn(key, snapshot[key]) {
			return nil
		}
	}
	return nil
}

// Commit applies all changes under one lock.
func (m *Memory) Commit(changes []Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range changes {
		if c.Action == ActionErase {
			delete(m.data, c.Key)
			continue
		}
		m.data[c.Key] = c.Data
	}
	return nil
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
