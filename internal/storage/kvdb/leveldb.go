package kvdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB stores state in a goleveldb database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a leveldb database in dir.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb %s: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, ErrDBClosed
	}
	v, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return v, err
}

func (l *LevelDB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return ErrDBClosed
	}
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return ErrDBClosed
	}
	return l.db.Delete(key, nil)
}

func (l *LevelDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if l.db == nil {
		return ErrDBClosed
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			batch.Put(op.Key, op.Value)
		case BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return l.db.Write(batch, nil)
}

func (l *LevelDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if l.db == nil {
		return nil, ErrDBClosed
	}
	return &levelIterator{iter: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (l *LevelDB) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

type levelIterator struct {
	iter iterator.Iterator
}

func (it *levelIterator) Next() bool    { return it.iter.Next() }
func (it *levelIterator) Key() []byte   { return append([]byte(nil), it.iter.Key()...) }
func (it *levelIterator) Value() []byte { return append([]byte(nil), it.iter.Value()...) }
func (it *levelIterator) Error() error  { return it.iter.Error() }
func (it *levelIterator) Close() error {
	it.iter.Release()
	return nil
}
