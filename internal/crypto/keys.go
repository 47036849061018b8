package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	crypto "github.com/LeJamon/goPropLedger/internal/crypto/common"
)

var (
	// ErrInvalidPrivateKey is returned when the private key is invalid
	ErrInvalidPrivateKey = errors.New("invalid private key")
	// ErrInvalidPublicKey is returned when the public key is invalid
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidSignature is returned when a signature cannot be parsed or does not verify
	ErrInvalidSignature = errors.New("invalid signature")
)

// KeyPair is a secp256k1 key pair used to sign transactions.
type KeyPair struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// GenerateKeyPair creates a new random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	privateKey, publicKey := btcec.PrivKeyFromBytes(key.Serialize())
	return &KeyPair{privateKey: privateKey, publicKey: publicKey}, nil
}

// KeyPairFromSeed deterministically derives a key pair from a seed phrase.
// It is meant for fixtures and local development.
func KeyPairFromSeed(seed string) *KeyPair {
	hash := crypto.Sha512Half([]byte(seed))
	privateKey, publicKey := btcec.PrivKeyFromBytes(hash[:])
	return &KeyPair{privateKey: privateKey, publicKey: publicKey}
}

// KeyPairFromHex parses a hex-encoded 32-byte private key.
func KeyPairFromHex(privKeyHex string) (*KeyPair, error) {
	privKeyHex = strings.TrimPrefix(privKeyHex, "0x")
	if len(privKeyHex) != 64 {
		return nil, ErrInvalidPrivateKey
	}
	privKeyBytes, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	privateKey, publicKey := btcec.PrivKeyFromBytes(privKeyBytes)
	if privateKey.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &KeyPair{privateKey: privateKey, publicKey: publicKey}, nil
}

// PublicKey returns the compressed public key.
func (k *KeyPair) PublicKey() []byte {
	return k.publicKey.SerializeCompressed()
}

// PublicKeyHex returns the compressed public key as a hex string.
func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey())
}

// PrivateKeyHex returns the private key as a hex string.
func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.privateKey.Serialize())
}

// AccountID returns the account controlled by this key pair.
func (k *KeyPair) AccountID() [AccountIDSize]byte {
	return CalcAccountID(k.PublicKey())
}

// Sign returns a DER-encoded signature over the 32-byte digest.
func (k *KeyPair) Sign(digest [32]byte) []byte {
	return ecdsa.Sign(k.privateKey, digest[:]).Serialize()
}

// Verify checks a DER-encoded signature over digest against a compressed public key.
func Verify(publicKey []byte, digest [32]byte, signature []byte) error {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return ErrInvalidPublicKey
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !sig.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}
