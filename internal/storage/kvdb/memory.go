package kvdb

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryDB is an in-memory DB for tests and standalone runs.
type MemoryDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

func (m *MemoryDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryDB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryDB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *MemoryDB) Batch(ctx context.Context, ops []BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != BatchPut && op.Type != BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			m.data[string(op.Key)] = append([]byte(nil), op.Value...)
		case BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

func (m *MemoryDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}

	it := &memoryIterator{pos: -1}
	for k, v := range m.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		it.keys = append(it.keys, kb)
		it.values = append(it.values, append([]byte(nil), v...))
	}
	sort.Sort(it)
	return it, nil
}

func (m *MemoryDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memoryIterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *memoryIterator) Len() int           { return len(it.keys) }
func (it *memoryIterator) Less(i, j int) bool { return bytes.Compare(it.keys[i], it.keys[j]) < 0 }
func (it *memoryIterator) Swap(i, j int) {
	it.keys[i], it.keys[j] = it.keys[j], it.keys[i]
	it.values[i], it.values[j] = it.values[j], it.values[i]
}

func (it *memoryIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memoryIterator) Key() []byte   { return it.keys[it.pos] }
func (it *memoryIterator) Value() []byte { return it.values[it.pos] }
func (it *memoryIterator) Error() error  { return nil }
func (it *memoryIterator) Close() error  { return nil }
