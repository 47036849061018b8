// Package view provides read/write access to ledger state: the committed
// stores and the staged table every transaction applies against.
package view

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
)

var (
	// ErrEntryExists is returned by Insert when the key is already present
	ErrEntryExists = errors.New("entry already exists")

	// ErrEntryNotFound is returned by Update and Erase when the key is absent
	ErrEntryNotFound = errors.New("entry not found")
)

// Reader provides read access to ledger state
type Reader interface {
	// Read returns the entry data, or nil when the entry does not exist
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists
	Exists(k keylet.Keylet) (bool, error)

	// ForEach visits every entry whose key starts with prefix, in key order.
	// If fn returns false, iteration stops early
	ForEach(prefix keylet.Prefix, fn func(key [32]byte, data []byte) bool) error
}

// LedgerView provides read/write access to ledger state
type LedgerView interface {
	Reader

	// Insert adds a new entry
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry
	Erase(k keylet.Keylet) error
}

// Action represents the type of modification to a ledger entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "CreatedNode"
	case ActionModify:
		return "ModifiedNode"
	case ActionErase:
		return "DeletedNode"
	default:
		return "Cached"
	}
}

// Change is one committed mutation. Data is nil for erasures.
type Change struct {
	Key    [32]byte
	Action Action
	Data   []byte
}

// Committer is a view that can atomically commit a set of changes.
type Committer interface {
	LedgerView
	Commit(changes []Change) error
}

// Get reads and decodes the entry at k. It returns nil when the entry does not exist.
func Get[T any, PT interface {
	*T
	entry.Entry
}](r Reader, k keylet.Keylet) (PT, error) {
	data, err := r.Read(k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	out := PT(new(T))
	if out.EntryType() != k.Type {
		return nil, fmt.Errorf("keylet type %s does not match %s", k.Type, out.EntryType())
	}
	if err := entry.Decode(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Put encodes e and writes it at k, inserting or updating as needed.
func Put(v LedgerView, k keylet.Keylet, e entry.Entry) error {
	if e.EntryType() != k.Type {
		return fmt.Errorf("keylet type %s does not match %s", k.Type, e.EntryType())
	}
	data, err := entry.Encode(e)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Each decodes every entry under prefix into a fresh T and passes it to fn.
func Each[T any, PT interface {
	*T
	entry.Entry
}](r Reader, prefix keylet.Prefix, fn func(PT) bool) error {
	var decodeErr error
	err := r.ForEach(prefix, func(_ [32]byte, data []byte) bool {
		out := PT(new(T))
		if decodeErr = entry.Decode(data, out); decodeErr != nil {
			return false
		}
		return fn(out)
	})
	if err != nil {
		return err
	}
	return decodeErr
}
