package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/storage/kvdb"
)

// DefaultCacheSize is the number of entries kept in the read cache.
const DefaultCacheSize = 4096

// Store is the committed view backed by a key/value database, with an LRU
// read cache in front of it.
type Store struct {
	mu    sync.Mutex
	db    kvdb.DB
	cache *lru.Cache[[32]byte, []byte]

	hits   uint64
	misses uint64
}

// NewStore wraps db. A cacheSize <= 0 uses DefaultCacheSize.
func NewStore(db kvdb.DB, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := s.cache.Get(k.Key); ok {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		return data, nil
	}

	data, err := s.db.Read(context.Background(), k.Key[:])
	if errors.Is(err, kvdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k.Type, err)
	}

	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	s.cache.Add(k.Key, data)
	return data, nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	data, err := s.Read(k)
	return data != nil, err
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}
	return s.Commit([]Change{{Key: k.Key, Action: ActionInsert, Data: data}})
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryNotFound
	}
	return s.Commit([]Change{{Key: k.Key, Action: ActionModify, Data: data}})
}

func (s *Store) Erase(k keylet.Keylet) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEntryNotFound
	}
	return s.Commit([]Change{{Key: k.Key, Action: ActionErase}})
}

func (s *Store) ForEach(prefix keylet.Prefix, fn func(key [32]byte, data []byte) bool) error {
	start, end := kvdb.PrefixRange(prefix)
	it, err := s.db.Iterator(context.Background(), start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		var key [32]byte
		if len(it.Key()) != len(key) {
			continue
		}
		copy(key[:], it.Key())
		if !fn(key, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Commit writes every change in a single database batch and refreshes the cache.
func (s *Store) Commit(changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	ops := make([]kvdb.BatchOperation, 0, len(changes))
	for _, c := range changes {
		key := append([]byte(nil), c.Key[:]...)
		if c.Action == ActionErase {
			ops = append(ops, kvdb.BatchOperation{Type: kvdb.BatchDelete, Key: key})
		} else {
			ops = append(ops, kvdb.BatchOperation{Type: kvdb.BatchPut, Key: key, Value: c.Data})
		}
	}
	if err := s.db.Batch(context.Background(), ops); err != nil {
		// The cache may now disagree with the database.
		s.cache.Purge()
		return fmt.Errorf("commit %d changes: %w", len(changes), err)
	}
	for _, c := range changes {
		if c.Action == ActionErase {
			s.cache.Remove(c.Key)
		} else {
			s.cache.Add(c.Key, c.Data)
		}
	}
	return nil
}

// CacheStats returns cache hit and miss counts.
func (s *Store) CacheStats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}
