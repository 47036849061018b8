package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/crypto"
	common "github.com/LeJamon/goPropLedger/internal/crypto/common"
	"github.com/LeJamon/goPropLedger/internal/protocol"
)

// SigningHash is the digest a signer commits to: the transaction JSON with
// an empty TxnSignature, under the "TXN\0" domain prefix.
func SigningHash(t Transaction) ([32]byte, error) {
	c := t.GetCommon()
	sig := c.TxnSignature
	c.TxnSignature = ""
	data, err := json.Marshal(t)
	c.TxnSignature = sig
	if err != nil {
		return [32]byte{}, err
	}
	return common.Sha512HalfPrefixed(protocol.HashPrefixTxSign, data), nil
}

// Hash identifies a transaction including its signature.
func Hash(t Transaction) ([32]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return [32]byte{}, err
	}
	return common.Sha512HalfPrefixed(protocol.HashPrefixTransactionID, data), nil
}

// Sign fills SigningPubKey and TxnSignature. The key must control the transaction account.
func Sign(t Transaction, kp *crypto.KeyPair) error {
	c := t.GetCommon()
	if account.ID(kp.AccountID()) != c.Account {
		return fmt.Errorf("key controls %s, transaction account is %s", account.ID(kp.AccountID()), c.Account)
	}
	c.SigningPubKey = kp.PublicKeyHex()
	digest, err := SigningHash(t)
	if err != nil {
		return err
	}
	c.TxnSignature = hex.EncodeToString(kp.Sign(digest))
	return nil
}

// VerifySignature checks that the transaction is signed by a key that controls its account.
func VerifySignature(t Transaction) error {
	c := t.GetCommon()
	if c.SigningPubKey == "" || c.TxnSignature == "" {
		return Fail(TefBAD_SIGNATURE, "transaction is not signed")
	}
	pub, err := hex.DecodeString(c.SigningPubKey)
	if err != nil {
		return Fail(TefBAD_SIGNATURE, "malformed SigningPubKey")
	}
	if account.FromPublicKey(pub) != c.Account {
		return Fail(TefBAD_SIGNATURE, "SigningPubKey does not control %s", c.Account)
	}
	sig, err := hex.DecodeString(c.TxnSignature)
	if err != nil {
		return Fail(TefBAD_SIGNATURE, "malformed TxnSignature")
	}
	digest, err := SigningHash(t)
	if err != nil {
		return Fail(TefINTERNAL, "signing hash: %v", err)
	}
	if err := crypto.Verify(pub, digest, sig); err != nil {
		return Fail(TefBAD_SIGNATURE, "%v", err)
	}
	return nil
}
