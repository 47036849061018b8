// Package kvdb provides the ordered key/value stores that hold committed ledger state.
package kvdb

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDBClosed is returned when trying to operate on a closed database
	ErrDBClosed = errors.New("database is closed")

	// ErrKeyNotFound is returned when a key doesn't exist in the database
	ErrKeyNotFound = errors.New("key not found")
)

// DB defines the basic operations any database implementation must support
type DB interface {
	// Basic operations
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies every operation atomically
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end) in ascending order.
	// A nil bound is open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	Close() error
}

// Iterator allows traversing over database entries
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation represents a single operation in a batch
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// PrefixRange returns the iterator bounds covering every key that starts with prefix.
func PrefixRange(prefix []byte) (start, end []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	start = append([]byte(nil), prefix...)
	end = append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendBBolt   = "bbolt"
	BackendLevelDB = "leveldb"
)

// Open opens the named backend rooted at path.
func Open(backend, path string) (DB, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryDB(), nil
	case BackendPebble:
		return OpenPebble(path)
	case BackendBBolt:
		return OpenBBolt(path, "ledger")
	case BackendLevelDB:
		return OpenLevelDB(path)
	default:
		return nil, fmt.Errorf("unknown node_db backend %q", backend)
	}
}
