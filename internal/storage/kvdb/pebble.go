package kvdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleDB stores state in a pebble LSM tree.
type PebbleDB struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble database in dir.
func OpenPebble(dir string) (*PebbleDB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database %s: %w", dir, err)
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, ErrDBClosed
	}

	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (p *PebbleDB) Write(ctx context.Context, key, value []byte) error {
	if p.db == nil {
		return ErrDBClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleDB) Delete(ctx context.Context, key []byte) error {
	if p.db == nil {
		return ErrDBClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if p.db == nil {
		return ErrDBClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

func (p *PebbleDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if p.db == nil {
		return nil, ErrDBClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{iter: iter}, nil
}

func (p *PebbleDB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

type pebbleIterator struct {
	iter    *pebble.Iterator
	started bool
	key     []byte
	value   []byte
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		it.iter.First()
	} else {
		it.iter.Next()
	}
	if !it.iter.Valid() {
		return false
	}
	it.key = append(it.key[:0], it.iter.Key()...)
	it.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *pebbleIterator) Key() []byte   { return append([]byte(nil), it.key...) }
func (it *pebbleIterator) Value() []byte { return it.value }
func (it *pebbleIterator) Error() error  { return it.iter.Error() }
func (it *pebbleIterator) Close() error  { return it.iter.Close() }
