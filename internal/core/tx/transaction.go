package tx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goPropLedger/internal/core/account"
)

// Common errors
var (
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrMissingAccount         = Fail(TemMALFORMED, "Account is required")
)

// Transaction is the interface that all transaction types must implement
type Transaction interface {
	// TxType returns the transaction type
	TxType() Type

	// GetCommon returns the common transaction fields
	GetCommon() *Common

	// Validate checks the transaction in isolation, without ledger state
	Validate() error
}

// Appliable is implemented by transaction types that can apply themselves to ledger state.
type Appliable interface {
	Apply(ctx *ApplyContext) error
}

// Common contains fields common to all transaction types
type Common struct {
	Account         account.ID `json:"Account"`
	TransactionType string     `json:"TransactionType"`

	// Sequence must equal the account's next sequence when non-zero
	Sequence uint64 `json:"Sequence,omitempty"`

	SigningPubKey string `json:"SigningPubKey,omitempty"`
	TxnSignature  string `json:"TxnSignature,omitempty"`
}

// Validate checks the common fields
func (c *Common) Validate() error {
	if c.Account.IsZero() {
		return ErrMissingAccount
	}
	return nil
}

// BaseTx is embedded by every concrete transaction.
type BaseTx struct {
	Common
	txType Type
}

// TxType returns the transaction type
func (b *BaseTx) TxType() Type {
	return b.txType
}

// GetCommon returns the common fields
func (b *BaseTx) GetCommon() *Common {
	return &b.Common
}

// Validate validates the common fields
func (b *BaseTx) Validate() error {
	return b.Common.Validate()
}

// NewBaseTx creates a BaseTx for the given type and account.
func NewBaseTx(txType Type, acct account.ID) *BaseTx {
	return &BaseTx{
		Common: Common{
			Account:         acct,
			TransactionType: txType.String(),
		},
		txType: txType,
	}
}

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]func() Transaction)
)

// Register makes a transaction type constructible by NewFromType and FromJSON.
// Transaction packages call it from init.
func Register(t Type, factory func() Transaction) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[t]; dup {
		panic(fmt.Sprintf("transaction type %s registered twice", t))
	}
	registry[t] = factory
}

// NewFromType creates a new empty transaction of the given type
func NewFromType(t Type) (Transaction, error) {
	registryMu.RLock()
	factory, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrUnknownTransactionType
	}
	return factory(), nil
}

// FromJSON creates a Transaction from a JSON object
func FromJSON(data []byte) (Transaction, error) {
	var raw struct {
		TransactionType string `json:"TransactionType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	txType, ok := TypeFromName(raw.TransactionType)
	if !ok {
		return nil, ErrUnknownTransactionType
	}

	t, err := NewFromType(txType)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SupportedTypes returns all registered transaction types in code order.
func SupportedTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
