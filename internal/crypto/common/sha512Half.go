package crypto

import "crypto/sha512"

// Sha512Half returns the first 32 bytes of the SHA-512 hash of msg.
func Sha512Half(msg []byte) [32]byte {
	h := sha512.Sum512(msg)
	var result [32]byte
	copy(result[:], h[:32])
	return result
}

// Sha512HalfPrefixed hashes a 4-byte domain prefix followed by msg.
func Sha512HalfPrefixed(prefix [4]byte, msg []byte) [32]byte {
	buf := make([]byte, 0, len(prefix)+len(msg))
	buf = append(buf, prefix[:]...)
	buf = append(buf, msg...)
	return Sha512Half(buf)
}
