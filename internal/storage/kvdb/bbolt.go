package kvdb

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// BBoltDB stores state in a single bucket of a bbolt file.
type BBoltDB struct {
	db     *bbolt.DB
	bucket []byte
}

// OpenBBolt opens (or creates) dir/<bucket>.db and its bucket.
func OpenBBolt(dir, bucket string) (*BBoltDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	db, err := bbolt.Open(filepath.Join(dir, bucket+".db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", bucket, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket for %s: %w", bucket, err)
	}
	return &BBoltDB{db: db, bucket: []byte(bucket)}, nil
}

func (b *BBoltDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, ErrDBClosed
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(b.bucket).Get(key)
		if v == nil {
			return ErrKeyNotFound
		}
		// bbolt values are only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BBoltDB) Write(ctx context.Context, key, value []byte) error {
	if b.db == nil {
		return ErrDBClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put(key, value)
	})
}

func (b *BBoltDB) Delete(ctx context.Context, key []byte) error {
	if b.db == nil {
		return ErrDBClosed
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Delete(key)
	})
}

func (b *BBoltDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if b.db == nil {
		return ErrDBClosed
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		for _, op := range ops {
			var err error
			switch op.Type {
			case BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("unknown batch operation type: %d", op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BBoltDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if b.db == nil {
		return nil, ErrDBClosed
	}

	tx, err := b.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &bboltIterator{
		tx:     tx,
		cursor: tx.Bucket(b.bucket).Cursor(),
		start:  start,
		end:    end,
	}, nil
}

func (b *BBoltDB) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type bboltIterator struct {
	tx         *bbolt.Tx
	cursor     *bbolt.Cursor
	started    bool
	key, value []byte
	start, end []byte
}

func (it *bboltIterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		if it.start == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.start)
		}
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), k...)
	it.value = append([]byte(nil), v...)
	return true
}

func (it *bboltIterator) Key() []byte   { return it.key }
func (it *bboltIterator) Value() []byte { return it.value }
func (it *bboltIterator) Error() error  { return nil }
func (it *bboltIterator) Close() error  { return it.tx.Rollback() }
