package testing

import (
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/crypto"
)

// Account represents a test account with a key pair derived from its name.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Keys signs transactions for the account.
	Keys *crypto.KeyPair

	// ID is the 20-byte account ID derived from the public key.
	ID account.ID
}

// NewAccount creates a deterministic account: the same name always yields the same keys.
func NewAccount(name string) *Account {
	kp := crypto.KeyPairFromSeed(name)
	return &Account{
		Name: name,
		Keys: kp,
		ID:   account.ID(kp.AccountID()),
	}
}

// AdminAccount returns the administrator every TestEnv is created with.
func AdminAccount() *Account {
	return NewAccount("admin")
}

// String returns a debug representation including name and account ID.
func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.ID)
}
