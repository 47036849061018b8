// Package protocol holds the constants that fix hashes and signatures of the
// ledger. Changing any of them invalidates existing signatures and snapshots.
package protocol

// makeHashPrefix combines three ASCII characters into a 4-byte prefix with the last byte set to zero.
func makeHashPrefix(a, b, c byte) [4]byte {
	return [4]byte{a, b, c, 0}
}

// Hash domains. Each digest starts with its prefix so that data hashed for
// one purpose never collides with another.
var (
	HashPrefixTxSign        = makeHashPrefix('T', 'X', 'N') // transaction without its signature, for signing
	HashPrefixTransactionID = makeHashPrefix('T', 'X', 'I') // signed transaction, its id
	HashPrefixSnapshot      = makeHashPrefix('S', 'N', 'P') // snapshot record stream
)
