package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// AccountIDSize is the size of an account ID in bytes.
const AccountIDSize = 20

// CalcAccountID computes the account ID for a public key as
// RIPEMD160(SHA256(publicKey)). The full compressed key is hashed.
func CalcAccountID(publicKey []byte) [AccountIDSize]byte {
	sha256Hash := sha256.Sum256(publicKey)

	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])
	ripemd160Hash := ripemd160Hasher.Sum(nil)

	var result [AccountIDSize]byte
	copy(result[:], ripemd160Hash)
	return result
}

// CalcModuleAccountID derives the account ID for a named module account.
// Module accounts have no key pair, so nothing can sign for them.
func CalcModuleAccountID(name string) [AccountIDSize]byte {
	return CalcAccountID(append([]byte("module:"), name...))
}
