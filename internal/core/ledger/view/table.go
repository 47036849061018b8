package view

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
)

// TrackedEntry represents a ledger entry being tracked for changes
type TrackedEntry struct {
	Keylet   keylet.Keylet
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state
}

// AffectedNode describes one entry a transaction created, modified or deleted.
type AffectedNode struct {
	NodeType        string `json:"node_type"`
	LedgerEntryType string `json:"ledger_entry_type"`
	LedgerIndex     string `json:"ledger_index"`
}

// Table wraps a base view and stages every modification until Apply.
// Discarding a table discards all of its changes.
type Table struct {
	base  LedgerView
	items map[[32]byte]*TrackedEntry
}

// NewTable creates a staged table over base.
func NewTable(base LedgerView) *Table {
	return &Table{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads a ledger entry, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if item, exists := t.items[k.Key]; exists {
		if item.Action == ActionErase {
			return nil, nil
		}
		return item.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Keylet:   k,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if item, exists := t.items[k.Key]; exists {
		return item.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new entry
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if item, exists := t.items[k.Key]; exists {
		if item.Action != ActionErase {
			return ErrEntryExists
		}
		// Re-inserting a deleted entry becomes a modify
		item.Action = ActionModify
		item.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return ErrEntryExists
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:  k,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if item, exists := t.items[k.Key]; exists {
		if item.Action == ActionErase {
			return fmt.Errorf("%w (deleted)", ErrEntryNotFound)
		}
		if item.Action == ActionCache {
			item.Action = ActionModify
		}
		// An insert stays an insert with the new data
		item.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes an entry
func (t *Table) Erase(k keylet.Keylet) error {
	if item, exists := t.items[k.Key]; exists {
		switch item.Action {
		case ActionErase:
			return fmt.Errorf("%w (already deleted)", ErrEntryNotFound)
		case ActionInsert:
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		item.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return ErrEntryNotFound
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// ForEach visits base entries overlaid with staged changes, in key order.
func (t *Table) ForEach(prefix keylet.Prefix, fn func(key [32]byte, data []byte) bool) error {
	merged := make(map[[32]byte][]byte)
	err := t.base.ForEach(prefix, func(key [32]byte, data []byte) bool {
		merged[key] = data
		return true
	})
	if err != nil {
		return err
	}
	for key, item := range t.items {
		if !bytes.HasPrefix(key[:], prefix) {
			continue
		}
		if item.Action == ActionErase {
			delete(merged, key)
		} else {
			merged[key] = item.Current
		}
	}

	keys := make([][32]byte, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	for _, key := range keys {
		if !fn(key, merged[key]) {
			return nil
		}
	}
	return nil
}

// Changes returns the effective mutations in key order. Reads and
// modifications that restore the original bytes are skipped.
func (t *Table) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for key, item := range t.items {
		switch item.Action {
		case ActionCache:
			continue
		case ActionModify:
			if bytes.Equal(item.Original, item.Current) {
				continue
			}
			changes = append(changes, Change{Key: key, Action: ActionModify, Data: item.Current})
		case ActionInsert:
			changes = append(changes, Change{Key: key, Action: ActionInsert, Data: item.Current})
		case ActionErase:
			changes = append(changes, Change{Key: key, Action: ActionErase})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return bytes.Compare(changes[i].Key[:], changes[j].Key[:]) < 0 })
	return changes
}

// Touched returns the keys under prefix that this table changed, in key order.
func (t *Table) Touched(prefix keylet.Prefix) [][32]byte {
	var keys [][32]byte
	for _, c := range t.Changes() {
		if bytes.HasPrefix(c.Key[:], prefix) {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// AffectedNodes describes the changes for receipts.
func (t *Table) AffectedNodes() []AffectedNode {
	changes := t.Changes()
	nodes := make([]AffectedNode, 0, len(changes))
	for _, c := range changes {
		typeName := "Unknown"
		if typ, ok := keylet.TypeOf(c.Key); ok {
			typeName = typ.String()
		}
		nodes = append(nodes, AffectedNode{
			NodeType:        c.Action.String(),
			LedgerEntryType: typeName,
			LedgerIndex:     hex.EncodeToString(c.Key[:]),
		})
	}
	return nodes
}

// Apply commits all staged changes to base in one batch.
func (t *Table) Apply(base Committer) error {
	return base.Commit(t.Changes())
}

// ApplyTo stages the table's changes on dst, which is normally the view
// the table was opened over. Releasing a child table this way keeps the
// parent's own change tracking intact.
func (t *Table) ApplyTo(dst LedgerView) error {
	keys := make([][32]byte, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	for _, key := range keys {
		item := t.items[key]
		var err error
		switch item.Action {
		case ActionInsert:
			err = dst.Insert(item.Keylet, item.Current)
		case ActionModify:
			if bytes.Equal(item.Original, item.Current) {
				continue
			}
			err = dst.Update(item.Keylet, item.Current)
		case ActionErase:
			err = dst.Erase(item.Keylet)
		}
		if err != nil {
			return fmt.Errorf("apply %x: %w", key[:8], err)
		}
	}
	return nil
}
