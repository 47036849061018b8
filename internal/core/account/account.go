// Package account defines the 20-byte identifiers used for every party in the ledger.
package account

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/goPropLedger/internal/crypto"
)

// Size is the length of an account ID in bytes.
const Size = crypto.AccountIDSize

// ID identifies an account.
type ID [Size]byte

// Zero is the null account. It can never own anything or receive fees.
var Zero ID

// Well-known module accounts. Nobody holds keys for them.
var (
	// Market holds escrowed offer funds and acts as the transfer operator for sales.
	Market = ID(crypto.CalcModuleAccountID("market"))

	// YieldMinter is the only account allowed to mint the unit of account.
	YieldMinter = ID(crypto.CalcModuleAccountID("yield"))
)

// ErrInvalidID is returned when an account string cannot be parsed.
var ErrInvalidID = errors.New("invalid account id")

// FromPublicKey returns the account controlled by a compressed public key.
func FromPublicKey(publicKey []byte) ID {
	return ID(crypto.CalcAccountID(publicKey))
}

// Parse reads a 0x-prefixed (or bare) 40 character hex account ID.
func Parse(s string) (ID, error) {
	var id ID
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != Size*2 {
		return id, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	if _, err := hex.Decode(id[:], []byte(raw)); err != nil {
		return id, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool {
	return id == Zero
}

// IsModule reports whether id is one of the keyless module accounts.
func (id ID) IsModule() bool {
	return id == Market || id == YieldMinter
}

func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id ID) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, id[:])
	return b
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
